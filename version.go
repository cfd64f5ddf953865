package loadbank

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var rawVersion string

// Version is the release version of the gateway.
var Version = strings.TrimSpace(rawVersion)

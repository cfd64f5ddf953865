package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	statusOK         = "OK"
	statusBadRequest = "Bad Request"
	statusTimeout    = "Request Timeout"
	statusInternal   = "Internal Server Error"
)

// writeReply prints {"status": <status>, <key>: <value>} followed by a newline,
// keeping the key order and spacing clients already parse.
func writeReply(w io.Writer, status, key, value string) {
	var sb strings.Builder
	sb.WriteString(`{"status": `)
	sb.WriteString(quote(status))
	sb.WriteString(", ")
	sb.WriteString(quote(key))
	sb.WriteString(": ")
	sb.WriteString(quote(value))
	sb.WriteString("}\n")
	fmt.Fprint(w, sb.String())
}

func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

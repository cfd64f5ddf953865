package main

import (
	"fmt"

	"github.com/aretw0/loadbank"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of loadbankd",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "loadbankd version %s\n", loadbank.Version)
		},
	}
}

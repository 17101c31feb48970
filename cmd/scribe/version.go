package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/scribe"
)

// commit is stamped at build time:
//
//	go build -ldflags "-X main.commit=$(git rev-parse --short HEAD)"
var commit string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of scribe",
	Run: func(cmd *cobra.Command, args []string) {
		version := strings.TrimSpace(scribe.Version)
		if commit != "" {
			fmt.Printf("scribe version %s (%s)\n", version, commit)
			return
		}
		fmt.Printf("scribe version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

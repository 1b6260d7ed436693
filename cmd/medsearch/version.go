package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of medsearch",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("medsearch %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "onebotd",
	Short: "onebotd bridges OneBot v11 gateways to an event pipeline",
	Long: `onebotd terminates the three OneBot v11 transports (HTTP webhook,
WebSocket server, forward WebSocket client), authenticates inbound
traffic, and dispatches decoded events downstream.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the onebotd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("onebotd %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"surface3d/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Publish the configured surface to websocket clients",
	Long: `Builds the configured surface into a websocket hub and serves it on
ws://<addr>/ws until interrupted. Clients receive every mesh on connect and
can send {"type":"resend"} to get them again.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	addSurfaceFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	applyFlags(cmd, cfg)
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	hub := stream.NewHub(logger)
	if _, err := buildConfigured(cmd, hub, cfg); err != nil {
		return err
	}
	return stream.Serve(cmd.Context(), cfg.Server.Addr, hub, logger)
}

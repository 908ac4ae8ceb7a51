package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"surface3d/authoring"
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Write the host script for an authoring record",
	Long: `Writes a host script that rebuilds the surface described by an
authoring record, with the record kept as the script's trailing comment.
Without --record the half sphere record is used.`,
	Args: cobra.NoArgs,
	RunE: runScript,
}

var recordCmd = &cobra.Command{
	Use:   "record [script]",
	Short: "Print the authoring record carried by a script",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecord,
}

func init() {
	scriptCmd.Flags().String("record", "", "authoring record or script carrying one")
	scriptCmd.Flags().String("name", "", "mesh object name")
}

func runScript(cmd *cobra.Command, args []string) error {
	rec := authoring.HalfSphereRecord()
	if path, _ := cmd.Flags().GetString("record"); path != "" {
		var err error
		if rec, err = loadRecord(path); err != nil {
			return err
		}
	}
	name := cfg.Surface.Name
	if n, _ := cmd.Flags().GetString("name"); n != "" {
		name = n
	}
	return authoring.WriteScript(cmd.OutOrStdout(), rec, name)
}

func runRecord(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	rec, err := authoring.ExtractFromScript(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	out, err := rec.Marshal()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

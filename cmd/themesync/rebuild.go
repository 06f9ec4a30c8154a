package main

import (
	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recreate the workspace theme directory",
	Long:  "Delete the workspace theme directory with everything in it and recreate it empty, ready for a fresh pull.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newWorkspaceApp(cmd)
		if err != nil {
			return err
		}
		if err := a.ws.Rebuild(); err != nil {
			return err
		}
		a.logger.Info("workspace rebuilt", "theme_dir", a.ws.ThemeDir)
		return a.out.Message("Recreated %s", a.ws.ThemeDir)
	},
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

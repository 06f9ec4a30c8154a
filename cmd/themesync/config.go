package main

import (
	"io"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	Long:  "Print the fully resolved configuration after merging defaults, the config file, THEMESYNC_* variables, flags and shopify.theme.toml.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newWorkspaceApp(cmd)
		if err != nil {
			return err
		}
		return a.out.Print(a.cfg, func(w io.Writer) error {
			data, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/joshkremer/themesync/internal/csvjson"
)

var csv2jsonCmd = &cobra.Command{
	Use:   "csv2json <in.csv> <out.json>",
	Short: "Convert a CSV export to JSON keyed by a column",
	Long: `Convert a CSV file with a header row into a JSON object whose keys are the
values of the --key column and whose values are the rows as objects. Rows
keep their first-seen order; a repeated key keeps the later row.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		in, out := a.resolvePath(args[0]), a.resolvePath(args[1])
		stats, err := csvjson.ConvertFile(a.fs, in, out, key)
		if err != nil {
			return err
		}
		if stats.Duplicates > 0 || stats.EmptyKeys > 0 {
			a.logger.Warn("rows merged or dropped", "duplicates", stats.Duplicates, "empty_keys", stats.EmptyKeys)
		}
		return a.out.Message("Wrote %d keys from %d rows to %s", stats.Keys, stats.Rows, out)
	},
}

func init() {
	csv2jsonCmd.Flags().StringP("key", "k", "", "column whose values become the JSON keys")
	_ = csv2jsonCmd.MarkFlagRequired("key")

	rootCmd.AddCommand(csv2jsonCmd)
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshkremer/themesync/internal/download"
	"github.com/joshkremer/themesync/internal/guard"
	"github.com/joshkremer/themesync/internal/output"
	"github.com/joshkremer/themesync/internal/theme"
)

// errDownloadFailed marks a run in which at least one theme failed. The
// summary has already been printed.
var errDownloadFailed = errors.New("download finished with errors")

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download theme snapshots",
	Long: `Download snapshots of several themes into the snapshot directory, one
directory per theme with a manifest. Select the N most recent themes with
--count, specific themes with --names, or every eligible theme with --all
(the default). The live theme is left out unless --include-live is given,
and is only pulled with --allow-live.`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

// downloadRequest builds the selection request from flags.
func downloadRequest(cmd *cobra.Command) (download.Request, error) {
	var req download.Request
	all, _ := cmd.Flags().GetBool("all")
	names, _ := cmd.Flags().GetStringSlice("names")
	req.PullUnlistedIDs, _ = cmd.Flags().GetBool("pull-unlisted-ids")

	if cmd.Flags().Changed("count") {
		n, _ := cmd.Flags().GetInt("count")
		req.Count = &n
	}
	if cmd.Flags().Changed("names") {
		req.Names = names
		if len(names) == 0 {
			req.Names = []string{""}
		}
	}
	if all && (req.Count != nil || req.Names != nil) {
		return req, fmt.Errorf("%w: --all cannot be combined with --count or --names", theme.ErrValidation)
	}
	return req, nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	req, err := downloadRequest(cmd)
	if err != nil {
		return err
	}
	a, err := newWorkspaceApp(cmd)
	if err != nil {
		return err
	}

	a.cfg.WithOverrides(map[string]any{
		"destination": flagString(cmd, "dest"),
		"naming":      flagString(cmd, "naming"),
	})
	opts, err := a.cfg.DownloadOptions()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetBool("include-live"); v {
		opts.IncludeLive = true
	}
	opts.AllowLive, _ = cmd.Flags().GetBool("allow-live")
	if v, _ := cmd.Flags().GetBool("stop-on-error"); v {
		opts.ContinueOnError = false
	}
	if v, _ := cmd.Flags().GetBool("no-skip"); v {
		opts.SkipDownloaded = false
	}

	records, err := a.cli.ListThemes(cmd.Context())
	if err != nil {
		return err
	}
	d := download.New(download.Config{
		Puller:      a.cli,
		Manifests:   a.manifests(),
		Guard:       guard.FromCatalog(a.cfg.Store, records),
		FS:          a.fs,
		ProjectRoot: a.ws.ProjectRoot,
		Logger:      a.logger,
	})
	sum, err := d.Run(cmd.Context(), records, req, opts)
	if err != nil {
		return err
	}

	for _, tok := range sum.NotFound {
		if hints := theme.Suggest(tok, records, 3); len(hints) > 0 {
			a.logger.Warn("theme not found", "name", tok, "did_you_mean", strings.Join(hints, ", "))
		}
	}

	if err := a.out.Print(sum, func(w io.Writer) error { return printDownloadSummary(w, sum) }); err != nil {
		return err
	}
	if !sum.OK() {
		return fmt.Errorf("%w: %d of %d themes failed", errDownloadFailed, len(sum.Errors), len(sum.Selected))
	}
	return nil
}

func printDownloadSummary(w io.Writer, sum *download.Summary) error {
	fmt.Fprintf(w, "Snapshots in %s (run %s)\n", sum.Destination, sum.RunID)
	var rows [][]string
	for _, o := range sum.Downloaded {
		rows = append(rows, []string{"downloaded", o.Theme.NormalizedID(), o.Theme.DisplayName(), o.Dir})
	}
	for _, o := range sum.Skipped {
		rows = append(rows, []string{"skipped", o.Theme.NormalizedID(), o.Theme.DisplayName(), o.Reason})
	}
	for _, o := range sum.Errors {
		rows = append(rows, []string{"error", o.Theme.NormalizedID(), o.Theme.DisplayName(), o.Message})
	}
	for _, tok := range sum.NotFound {
		rows = append(rows, []string{"not found", "", tok, ""})
	}
	if len(rows) > 0 {
		if err := output.Table(w, []string{"STATUS", "ID", "NAME", "DETAIL"}, rows); err != nil {
			return err
		}
	}
	if sum.LiveRequested {
		fmt.Fprintln(w, "The live theme was requested but excluded; pass --include-live to select it.")
	}
	if sum.SkippedLive {
		fmt.Fprintln(w, "The live theme was skipped; pass --allow-live to pull it.")
	}
	_, err := fmt.Fprintf(w, "%d downloaded, %d skipped, %d failed\n", len(sum.Downloaded), len(sum.Skipped), len(sum.Errors))
	return err
}

func flagString(cmd *cobra.Command, name string) string {
	s, _ := cmd.Flags().GetString(name)
	return s
}

func init() {
	downloadCmd.Flags().IntP("count", "n", 0, "download the N most recently updated themes")
	downloadCmd.Flags().StringSlice("names", nil, "comma-separated theme names or ids")
	downloadCmd.Flags().Bool("all", false, "download every eligible theme")
	downloadCmd.Flags().StringP("dest", "d", "", "snapshot directory (default from config, theme_snapshots)")
	downloadCmd.Flags().Bool("include-live", false, "consider the live theme during selection")
	downloadCmd.Flags().Bool("allow-live", false, "allow pulling the live theme")
	downloadCmd.Flags().Bool("stop-on-error", false, "stop at the first failed theme")
	downloadCmd.Flags().Bool("no-skip", false, "pull again even when already downloaded")
	downloadCmd.Flags().String("naming", "", "directory naming: name, name-id or id")
	downloadCmd.Flags().Bool("pull-unlisted-ids", false, "pull numeric ids that are missing from the catalog")

	rootCmd.AddCommand(downloadCmd)
}

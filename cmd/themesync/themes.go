package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joshkremer/themesync/internal/guard"
	"github.com/joshkremer/themesync/internal/output"
	"github.com/joshkremer/themesync/internal/sanitize"
	"github.com/joshkremer/themesync/internal/shopify"
	"github.com/joshkremer/themesync/internal/theme"
	"github.com/joshkremer/themesync/internal/watch"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the store's themes",
	Long:  "List the store's themes, most recently updated first. The live theme is marked.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newWorkspaceApp(cmd)
		if err != nil {
			return err
		}
		records, err := a.cli.ListThemes(cmd.Context())
		if err != nil {
			return err
		}
		records = theme.SortByRecency(records)
		return a.out.Print(records, func(w io.Writer) error {
			if len(records) == 0 {
				_, err := fmt.Fprintln(w, "No themes found.")
				return err
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				role := r.Role
				if r.IsLive() {
					role += " *"
				}
				rows = append(rows, []string{r.NormalizedID(), r.DisplayName(), role, r.UpdatedAt})
			}
			return output.Table(w, []string{"ID", "NAME", "ROLE", "UPDATED"}, rows)
		})
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull one theme into the workspace",
	Long:  "Pull a theme into the workspace theme directory. Without --theme the live theme is pulled.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		themeID, _ := cmd.Flags().GetString("theme")
		live, _ := cmd.Flags().GetBool("live")
		if themeID != "" && live {
			return fmt.Errorf("%w: --theme and --live are mutually exclusive", theme.ErrValidation)
		}
		a, err := newWorkspaceApp(cmd)
		if err != nil {
			return err
		}
		opts := shopify.PullOptions{Theme: themeID, Live: themeID == "", Path: a.ws.ThemeDir}
		if err := a.cli.Pull(cmd.Context(), opts); err != nil {
			return err
		}
		target := themeID
		if opts.Live {
			target = guard.LiveSlot
		}
		return a.out.Print(map[string]string{"pulled": target, "path": a.ws.ThemeDir}, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "Pulled %s into %s\n", target, a.ws.ThemeDir)
			return err
		})
	},
}

// pushTarget validates the push flags and returns the guard target. An empty
// target means a new unpublished theme, which cannot overwrite anything.
func pushTarget(themeID string, live, unpublished bool) (string, error) {
	switch {
	case themeID != "" && live:
		return "", fmt.Errorf("%w: --theme and --live are mutually exclusive", theme.ErrValidation)
	case live && unpublished:
		return "", fmt.Errorf("%w: --live and --unpublished are mutually exclusive", theme.ErrValidation)
	case live:
		return guard.LiveSlot, nil
	}
	return themeID, nil
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the workspace to a theme",
	Long: `Push the workspace theme directory. Without --theme or --live a new
unpublished theme is created. Pushing to the live theme, or to a theme when
the live theme cannot be determined, requires --allow-live.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		themeID, _ := cmd.Flags().GetString("theme")
		live, _ := cmd.Flags().GetBool("live")
		unpublished, _ := cmd.Flags().GetBool("unpublished")
		allowLive, _ := cmd.Flags().GetBool("allow-live")

		target, err := pushTarget(themeID, live, unpublished)
		if err != nil {
			return err
		}
		a, err := newWorkspaceApp(cmd)
		if err != nil {
			return err
		}
		if target != "" {
			if d := a.liveGuard(cmd).Check(target, allowLive); !d.Allowed {
				return d
			}
		}
		opts := shopify.PushOptions{
			Theme:       themeID,
			Live:        live,
			Unpublished: unpublished || target == "",
			Path:        a.ws.ThemeDir,
		}
		if err := a.cli.Push(cmd.Context(), opts); err != nil {
			return err
		}
		return a.out.Message("Pushed %s", a.ws.ThemeDir)
	},
}

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Run the Shopify development server",
	Long: `Run "shopify theme dev" on the workspace. With --sanitize-on-change, app
blocks are removed from JSON templates whenever they change on disk.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		themeID, _ := cmd.Flags().GetString("theme")
		sanitizeOnChange, _ := cmd.Flags().GetBool("sanitize-on-change")

		a, err := newWorkspaceApp(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		var watchDone chan error
		if sanitizeOnChange {
			watchDone = make(chan error, 1)
			ts := watch.NewTemplateSanitizer(a.sanitizer(), a.fs, a.ws.TemplatesDir(), a.cfg.SanitizeOptions(), a.logger)
			go func() {
				watchDone <- ts.Run(ctx, watch.DefaultDebounce, func(sum *sanitize.Summary) {
					a.logger.Info("sanitized templates", "files", sum.ChangedFiles, "removed", sum.RemovedBlocks, "scrubbed", sum.ScrubbedBlocks)
				})
			}()
		}

		err = a.cli.Dev(ctx, shopify.DevOptions{Theme: themeID, Path: a.ws.ThemeDir, Stdin: cmd.InOrStdin()})
		if watchDone != nil {
			cancel()
			err = errors.Join(err, <-watchDone)
		}
		return err
	},
}

func init() {
	pullCmd.Flags().StringP("theme", "t", "", "theme id or name to pull")
	pullCmd.Flags().Bool("live", false, "pull the live theme (default when --theme is not set)")

	pushCmd.Flags().StringP("theme", "t", "", "theme id or name to overwrite")
	pushCmd.Flags().Bool("live", false, "push to the live theme")
	pushCmd.Flags().Bool("unpublished", false, "create a new unpublished theme")
	pushCmd.Flags().Bool("allow-live", false, "allow overwriting the live theme")

	devCmd.Flags().StringP("theme", "t", "", "theme id or name to preview")
	devCmd.Flags().Bool("sanitize-on-change", false, "remove app blocks from templates as they change")

	rootCmd.AddCommand(listCmd, pullCmd, pushCmd, devCmd)
}

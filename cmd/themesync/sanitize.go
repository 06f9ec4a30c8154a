package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var removeAppBlocksCmd = &cobra.Command{
	Use:   "remove-app-blocks",
	Short: "Strip app blocks from JSON templates",
	Long: `Remove blocks whose type starts with shopify://apps/ from every JSON
template in the workspace, and blank collapsible tabs in product templates
that reference metafields the store does not have. Comments at the top of a
template are preserved.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		noScrub, _ := cmd.Flags().GetBool("no-scrub-missing-metafields")
		dir, _ := cmd.Flags().GetString("dir")

		a, err := newWorkspaceApp(cmd)
		if err != nil {
			return err
		}
		if dir == "" {
			dir = a.ws.TemplatesDir()
		} else {
			dir = a.resolvePath(dir)
		}
		opts := a.cfg.SanitizeOptions()
		opts.DryRun = dryRun
		if noScrub {
			opts.ScrubMetafields = false
		}

		sum, err := a.sanitizer().RemoveAppBlocks(dir, opts)
		if err != nil {
			return err
		}
		return a.out.Print(sum, func(w io.Writer) error {
			verb := "Changed"
			if sum.DryRun {
				verb = "Would change"
			}
			fmt.Fprintf(w, "%s %d of %d templates in %s\n", verb, sum.Changed, sum.Scanned, sum.Dir)
			fmt.Fprintf(w, "  removed app blocks: %d\n", sum.RemovedBlocks)
			fmt.Fprintf(w, "  blanked metafield tabs: %d\n", sum.ScrubbedBlocks)
			if len(sum.ChangedFiles) > 0 {
				fmt.Fprintf(w, "  files: %s\n", strings.Join(sum.ChangedFiles, ", "))
			}
			for _, sk := range sum.Skipped {
				fmt.Fprintf(w, "  skipped %s: %s\n", sk.Name, sk.Reason)
			}
			return nil
		})
	},
}

var cleanAssetsCmd = &cobra.Command{
	Use:   "clean-assets",
	Short: "Delete assets that conflict with the theme",
	Long:  "Delete the asset files listed in sanitize.conflictFiles from the workspace assets directory.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		a, err := newWorkspaceApp(cmd)
		if err != nil {
			return err
		}
		res, err := a.sanitizer().DeleteConflictFiles(a.ws.AssetsDir(), a.cfg.Sanitize.ConflictFiles, dryRun)
		if res != nil {
			if perr := a.out.Print(res, func(w io.Writer) error {
				verb := "Deleted"
				if res.DryRun {
					verb = "Would delete"
				}
				fmt.Fprintf(w, "%s %d assets in %s\n", verb, len(res.Removed), res.Dir)
				for _, name := range res.Removed {
					fmt.Fprintf(w, "  %s\n", name)
				}
				return nil
			}); perr != nil {
				return perr
			}
		}
		return err
	},
}

func init() {
	removeAppBlocksCmd.Flags().Bool("dry-run", false, "report changes without writing")
	removeAppBlocksCmd.Flags().Bool("no-scrub-missing-metafields", false, "keep collapsible tabs that reference missing metafields")
	removeAppBlocksCmd.Flags().String("dir", "", "templates directory (default <theme dir>/templates)")

	cleanAssetsCmd.Flags().Bool("dry-run", false, "list files without deleting them")

	rootCmd.AddCommand(removeAppBlocksCmd, cleanAssetsCmd)
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joshkremer/themesync/internal/archive"
	"github.com/joshkremer/themesync/internal/manifest"
)

// newS3Client is replaced by tests.
var newS3Client = func(ctx context.Context, bucket, region string) (archive.S3Client, error) {
	return archive.NewDefaultS3Client(ctx, bucket, region)
}

var archiveCmd = &cobra.Command{
	Use:   "archive <snapshot-dir>",
	Short: "Mirror a snapshot directory to S3",
	Long: `Upload a downloaded snapshot to the configured S3 bucket under
<archive.s3.prefix>/<store>/<snapshot name>/. Only new or changed files are
uploaded and files no longer in the snapshot are deleted. Requires AWS
credentials in the environment.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		bucket, _ := cmd.Flags().GetString("bucket")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		a.cfg.WithOverrides(map[string]any{"bucket": bucket})
		s3cfg := a.cfg.Archive.S3
		if s3cfg.Bucket == "" {
			return fmt.Errorf("archive.s3.bucket is not configured")
		}

		dir := a.resolvePath(args[0])
		store := a.cfg.Store
		if m, ok := manifest.NewStore(a.fs).Read(dir); ok && m.Store != "" {
			store = m.Store
		}
		prefix := s3cfg.Prefix
		if store != "" {
			prefix = prefix + "/" + store
		}

		client, err := newS3Client(cmd.Context(), s3cfg.Bucket, s3cfg.Region)
		if err != nil {
			return err
		}
		res, err := archive.Archive(cmd.Context(), archive.Config{
			Bucket: s3cfg.Bucket,
			Prefix: prefix,
			DryRun: dryRun,
		}, a.fs, dir, client, a.logger)
		if err != nil {
			return err
		}

		if err := a.out.Print(res, func(w io.Writer) error {
			verb := "Archived"
			if res.DryRun {
				verb = "Would archive"
			}
			fmt.Fprintf(w, "%s %s to s3://%s/%s\n", verb, dir, res.Bucket, res.Prefix)
			fmt.Fprintf(w, "  uploaded: %d\n  deleted:  %d\n  unchanged: %d\n", len(res.Uploaded), len(res.Deleted), res.Skipped)
			for _, e := range res.Errors {
				fmt.Fprintf(w, "  error: %s\n", e)
			}
			return nil
		}); err != nil {
			return err
		}
		if len(res.Errors) > 0 {
			return fmt.Errorf("archive finished with %d errors", len(res.Errors))
		}
		return nil
	},
}

func init() {
	archiveCmd.Flags().Bool("dry-run", false, "show what would be uploaded or deleted")
	archiveCmd.Flags().String("bucket", "", "S3 bucket (overrides archive.s3.bucket)")

	rootCmd.AddCommand(archiveCmd)
}

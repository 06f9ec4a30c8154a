// Package archive mirrors downloaded theme snapshots into an S3 bucket,
// uploading only files whose content changed.
package archive

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// Config holds archive settings.
type Config struct {
	Bucket string
	// Prefix is prepended to every key, e.g. "themesync/joshk-staging".
	Prefix string
	DryRun bool
}

// Result holds the outcome of one archive run.
type Result struct {
	Bucket   string   `json:"bucket"`
	Prefix   string   `json:"prefix"`
	DryRun   bool     `json:"dry_run"`
	Uploaded []string `json:"uploaded"`
	Deleted  []string `json:"deleted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// FileEntry is a local file to archive.
type FileEntry struct {
	Path        string // relative to the snapshot, slash separated
	ContentType string
	Hash        string // hex MD5, comparable with a single-part S3 ETag
}

// S3Client is the subset of S3 operations the archiver needs.
type S3Client interface {
	PutObject(ctx context.Context, key string, body io.Reader, contentType, md5Hex string) error
	DeleteObject(ctx context.Context, key string) error
	// ListObjects returns key -> ETag for every object under prefix.
	ListObjects(ctx context.Context, prefix string) (map[string]string, error)
}

// ContentTypeForExt returns the MIME type for a theme file extension.
func ContentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".liquid":
		return "text/x-liquid; charset=utf-8"
	case ".json":
		return "application/json; charset=utf-8"
	case ".css", ".scss":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	case ".woff2":
		return "font/woff2"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// HashFile returns the hex MD5 of a file.
func HashFile(fsys afero.Fs, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", fmt.Errorf("opening file for hashing: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ScanFiles walks a snapshot directory.
func ScanFiles(fsys afero.Fs, dir string) ([]FileEntry, error) {
	var entries []FileEntry
	err := afero.Walk(fsys, dir, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return fmt.Errorf("computing relative path: %w", err)
		}
		hash, err := HashFile(fsys, p)
		if err != nil {
			return err
		}
		entries = append(entries, FileEntry{
			Path:        filepath.ToSlash(rel),
			ContentType: ContentTypeForExt(filepath.Ext(p)),
			Hash:        hash,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning files: %w", err)
	}
	return entries, nil
}

// DiffFiles compares local files with remote ETags keyed by relative path.
// It returns files to upload (new or changed) and paths to delete (remote
// only).
func DiffFiles(local []FileEntry, remote map[string]string) (toUpload []FileEntry, toDelete []string) {
	seen := make(map[string]bool, len(local))
	for _, e := range local {
		seen[e.Path] = true
		if etag, ok := remote[e.Path]; !ok || !strings.EqualFold(etag, e.Hash) {
			toUpload = append(toUpload, e)
		}
	}
	for p := range remote {
		if !seen[p] {
			toDelete = append(toDelete, p)
		}
	}
	return toUpload, toDelete
}

// SnapshotPrefix is the key prefix for one snapshot directory.
func SnapshotPrefix(prefix, snapshotDir string) string {
	return strings.Trim(path.Join(prefix, filepath.Base(snapshotDir)), "/") + "/"
}

// Archive mirrors snapshotDir to the bucket under SnapshotPrefix. Per-file
// failures are collected in the result; listing failures abort.
func Archive(ctx context.Context, cfg Config, fsys afero.Fs, snapshotDir string, client S3Client, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	prefix := SnapshotPrefix(cfg.Prefix, snapshotDir)
	result := &Result{Bucket: cfg.Bucket, Prefix: prefix, DryRun: cfg.DryRun, Uploaded: []string{}, Deleted: []string{}}

	local, err := ScanFiles(fsys, snapshotDir)
	if err != nil {
		return nil, fmt.Errorf("scanning local files: %w", err)
	}

	remoteKeys, err := client.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing remote objects: %w", err)
	}
	remote := make(map[string]string, len(remoteKeys))
	for key, etag := range remoteKeys {
		remote[strings.TrimPrefix(key, prefix)] = etag
	}

	toUpload, toDelete := DiffFiles(local, remote)
	result.Skipped = len(local) - len(toUpload)

	if cfg.DryRun {
		for _, e := range toUpload {
			result.Uploaded = append(result.Uploaded, prefix+e.Path)
		}
		for _, p := range toDelete {
			result.Deleted = append(result.Deleted, prefix+p)
		}
		return result, nil
	}

	for _, e := range toUpload {
		key := prefix + e.Path
		f, err := fsys.Open(filepath.Join(snapshotDir, filepath.FromSlash(e.Path)))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("opening %s: %v", e.Path, err))
			continue
		}
		err = client.PutObject(ctx, key, f, e.ContentType, e.Hash)
		f.Close()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("uploading %s: %v", e.Path, err))
			continue
		}
		result.Uploaded = append(result.Uploaded, key)
		logger.Debug("uploaded", "key", key)
	}

	for _, p := range toDelete {
		key := prefix + p
		if err := client.DeleteObject(ctx, key); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("deleting %s: %v", p, err))
			continue
		}
		result.Deleted = append(result.Deleted, key)
		logger.Debug("deleted", "key", key)
	}

	logger.Info("archived snapshot", "bucket", cfg.Bucket, "prefix", prefix,
		"uploaded", len(result.Uploaded), "deleted", len(result.Deleted), "skipped", result.Skipped)
	return result, nil
}

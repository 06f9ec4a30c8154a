package config

import (
	"github.com/joshkremer/themesync/internal/download"
	"github.com/joshkremer/themesync/internal/sanitize"
)

// DownloadOptions converts the download section into downloader options.
func (c *Config) DownloadOptions() (download.Options, error) {
	naming, err := download.ParseNaming(c.Download.Naming)
	if err != nil {
		return download.Options{}, err
	}
	opts := download.DefaultOptions()
	if c.Download.Destination != "" {
		opts.Destination = c.Download.Destination
	}
	opts.Naming = naming
	opts.IncludeLive = c.Download.IncludeLive
	opts.ContinueOnError = c.Download.ContinueOnError
	opts.SkipDownloaded = c.Download.SkipDownloaded
	opts.Store = c.Store
	return opts, nil
}

// SanitizeOptions converts the sanitize section into sanitizer options.
func (c *Config) SanitizeOptions() sanitize.Options {
	opts := sanitize.DefaultOptions()
	opts.ScrubMetafields = c.Sanitize.ScrubMetafields
	if c.Sanitize.AppBlockPrefix != "" {
		opts.AppBlockPrefix = c.Sanitize.AppBlockPrefix
	}
	if len(c.Sanitize.MetafieldRefs) > 0 {
		opts.MetafieldRefs = c.Sanitize.MetafieldRefs
	}
	return opts
}

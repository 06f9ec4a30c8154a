package config

import (
	"errors"
	"testing"

	"github.com/joshkremer/themesync/internal/download"
	"github.com/joshkremer/themesync/internal/theme"
)

func TestDownloadOptions(t *testing.T) {
	cfg := Default()
	cfg.Store = "joshk-staging"
	cfg.Download.Naming = "name-id"
	cfg.Download.ContinueOnError = false

	opts, err := cfg.DownloadOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Naming != download.NamingNameID || opts.ContinueOnError || !opts.SkipDownloaded {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.Store != "joshk-staging" || opts.Destination != download.DefaultDestination {
		t.Errorf("unexpected store or destination in %+v", opts)
	}

	cfg.Download.Naming = "slug"
	if _, err := cfg.DownloadOptions(); !errors.Is(err, theme.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSanitizeOptions(t *testing.T) {
	cfg := Default()
	cfg.Sanitize.ScrubMetafields = false
	cfg.Sanitize.MetafieldRefs = []string{"custom.care"}

	opts := cfg.SanitizeOptions()
	if opts.ScrubMetafields {
		t.Error("scrub should follow the config")
	}
	if len(opts.MetafieldRefs) != 1 || opts.MetafieldRefs[0] != "custom.care" {
		t.Errorf("metafield refs: got %v", opts.MetafieldRefs)
	}
	if opts.AppBlockPrefix != "shopify://apps/" {
		t.Errorf("prefix: got %q", opts.AppBlockPrefix)
	}
}

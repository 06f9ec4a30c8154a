// Package sanitize cleans theme JSON templates of app-injected blocks and
// removes asset files known to conflict with the theme.
package sanitize

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultAppBlockPrefix marks blocks injected by third-party apps.
const DefaultAppBlockPrefix = "shopify://apps/"

// DefaultMetafieldRefs are metafield references left behind by uninstalled
// review and tab apps. Product templates that still render them break.
var DefaultMetafieldRefs = []string{
	"product.metafields.spr.reviews",
	"product.metafields.judgeme.",
	"product.metafields.reviews.",
	"product.metafields.descriptors.care_guide",
}

const collapsibleTabType = "collapsible_tab"

// ErrTemplateParse marks a template that could not be parsed.
var ErrTemplateParse = errors.New("template parse error")

// Options controls a sanitize pass.
type Options struct {
	DryRun bool
	// ScrubMetafields blanks collapsible tabs in product templates that
	// reference a metafield from MetafieldRefs.
	ScrubMetafields bool
	AppBlockPrefix  string
	MetafieldRefs   []string
}

// DefaultOptions scrubs metafields and writes changes.
func DefaultOptions() Options {
	return Options{
		ScrubMetafields: true,
		AppBlockPrefix:  DefaultAppBlockPrefix,
		MetafieldRefs:   DefaultMetafieldRefs,
	}
}

// FileResult describes the edits made to one template.
type FileResult struct {
	Name     string   `json:"name"`
	Removed  []string `json:"removed,omitempty"`
	Scrubbed []string `json:"scrubbed,omitempty"`
}

// Changed reports whether any edit applies.
func (r FileResult) Changed() bool { return len(r.Removed) > 0 || len(r.Scrubbed) > 0 }

// splitComment separates one leading /* ... */ comment from the JSON body.
func splitComment(data []byte) (header, body []byte) {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if !bytes.HasPrefix(trimmed, []byte("/*")) {
		return nil, data
	}
	end := bytes.Index(trimmed, []byte("*/"))
	if end < 0 {
		return nil, data
	}
	cut := len(data) - len(trimmed) + end + 2
	for cut < len(data) && (data[cut] == '\n' || data[cut] == '\r') {
		cut++
	}
	return data[:cut], data[cut:]
}

// Transform applies the sanitize rules to one template. name is the file's
// base name; it decides whether product rules apply. The returned bytes keep
// the leading comment and the order and layout of every untouched key.
func Transform(name string, data []byte, opts Options) ([]byte, FileResult, error) {
	res := FileResult{Name: name}
	prefix := opts.AppBlockPrefix
	if prefix == "" {
		prefix = DefaultAppBlockPrefix
	}

	header, body := splitComment(data)
	if !gjson.ValidBytes(body) {
		return nil, res, fmt.Errorf("%w: %s: invalid JSON", ErrTemplateParse, name)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, res, fmt.Errorf("%w: %s: top level is not an object", ErrTemplateParse, name)
	}

	scrub := opts.ScrubMetafields && strings.HasPrefix(name, "product")

	type edit struct {
		path   string
		delete bool
		value  any
	}
	var edits []edit

	root.Get("sections").ForEach(func(secKey, sec gjson.Result) bool {
		if !sec.IsObject() {
			return true
		}
		secPath := "sections." + gjson.Escape(secKey.String())
		removed := make(map[string]bool)

		sec.Get("blocks").ForEach(func(blockKey, block gjson.Result) bool {
			id := blockKey.String()
			blockPath := secPath + ".blocks." + gjson.Escape(id)
			typ := block.Get("type").String()

			if strings.HasPrefix(typ, prefix) {
				removed[id] = true
				res.Removed = append(res.Removed, secKey.String()+"/"+id)
				edits = append(edits, edit{path: blockPath, delete: true})
				return true
			}
			if scrub && typ == collapsibleTabType {
				content := block.Get("settings.content")
				if content.Type == gjson.String && containsAny(content.String(), opts.MetafieldRefs) {
					res.Scrubbed = append(res.Scrubbed, secKey.String()+"/"+id)
					edits = append(edits, edit{path: blockPath + ".settings.content", value: ""})
				}
			}
			return true
		})

		order := sec.Get("block_order")
		if len(removed) > 0 && order.IsArray() {
			ids := lo.Map(order.Array(), func(v gjson.Result, _ int) string { return v.String() })
			kept := lo.Filter(ids, func(id string, _ int) bool { return !removed[id] })
			if len(kept) != len(ids) {
				edits = append(edits, edit{path: secPath + ".block_order", value: kept})
			}
		}
		return true
	})

	if len(edits) == 0 {
		return data, res, nil
	}

	out := append([]byte(nil), body...)
	for _, e := range edits {
		var err error
		if e.delete {
			out, err = sjson.DeleteBytes(out, e.path)
		} else {
			out, err = sjson.SetBytes(out, e.path, e.value)
		}
		if err != nil {
			return nil, res, fmt.Errorf("editing %s in %s: %w", e.path, name, err)
		}
	}
	return append(append([]byte(nil), header...), out...), res, nil
}

func containsAny(s string, subs []string) bool {
	return lo.SomeBy(subs, func(sub string) bool { return sub != "" && strings.Contains(s, sub) })
}

package sanitize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	return data
}

func blockOrder(t *testing.T, body []byte, section string) []string {
	t.Helper()
	var out []string
	for _, v := range gjson.GetBytes(body, "sections."+gjson.Escape(section)+".block_order").Array() {
		out = append(out, v.String())
	}
	return out
}

func TestTransformRemovesAppBlocks(t *testing.T) {
	in := readFixture(t, "product.json")
	out, res, err := Transform("product.json", in, DefaultOptions())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	header, body := splitComment(out)
	if !strings.Contains(string(header), "auto-generated") {
		t.Errorf("leading comment should be preserved, got header %q", header)
	}
	if gjson.GetBytes(body, "sections.main.blocks.review_app").Exists() {
		t.Error("app block should be removed from blocks")
	}
	if diff := cmp.Diff([]string{"title", "price", "tab", "tab2"}, blockOrder(t, body, "main")); diff != "" {
		t.Errorf("block_order mismatch (-want +got):\n%s", diff)
	}
	if got := blockOrder(t, body, "related.v2"); len(got) != 0 {
		t.Errorf("dotted section ids should be handled, got block_order %v", got)
	}
	if diff := cmp.Diff([]string{"main/review_app", "related.v2/upsell"}, res.Removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
}

func TestTransformScrubsProductMetafields(t *testing.T) {
	in := readFixture(t, "product.json")
	out, res, err := Transform("product.json", in, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	_, body := splitComment(out)
	if got := gjson.GetBytes(body, "sections.main.blocks.tab.settings.content").String(); got != "" {
		t.Errorf("tab content should be blanked, got %q", got)
	}
	if got := gjson.GetBytes(body, "sections.main.blocks.tab2.settings.content").String(); got != "Shipping info" {
		t.Errorf("unrelated tab should be untouched, got %q", got)
	}
	if diff := cmp.Diff([]string{"main/tab"}, res.Scrubbed); diff != "" {
		t.Errorf("scrubbed mismatch (-want +got):\n%s", diff)
	}

	_, res, _ = Transform("index.json", in, DefaultOptions())
	if len(res.Scrubbed) != 0 {
		t.Error("non-product templates must not be scrubbed")
	}
	opts := DefaultOptions()
	opts.ScrubMetafields = false
	_, res, _ = Transform("product.json", in, opts)
	if len(res.Scrubbed) != 0 {
		t.Error("scrubbing disabled should leave tabs alone")
	}
}

func TestTransformPreservesLayout(t *testing.T) {
	in := readFixture(t, "product.json")
	out, _, err := Transform("product.json", in, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	for _, line := range []string{
		`"title": {"type": "title", "settings": {}},`,
		`"price": {"type": "price", "settings": {}},`,
		`"order": ["main", "related.v2"]`,
	} {
		if !strings.Contains(s, line) {
			t.Errorf("untouched line %q should survive verbatim", line)
		}
	}
	if strings.Index(s, `"sections"`) > strings.Index(s, `"order"`) {
		t.Error("key order changed")
	}
}

func TestTransformUnchanged(t *testing.T) {
	in := []byte(`{"sections":{"a":{"blocks":{"x":{"type":"text"}},"block_order":["x"]}}}`)
	out, res, err := Transform("page.json", in, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed() || string(out) != string(in) {
		t.Errorf("clean template should be returned as is, got %s", out)
	}
}

func TestTransformParseErrors(t *testing.T) {
	for name, in := range map[string]string{
		"broken":       `{"sections":`,
		"array":        `[1,2]`,
		"comment only": `/* nothing */`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := Transform("x.json", []byte(in), DefaultOptions())
			if !errors.Is(err, ErrTemplateParse) {
				t.Errorf("expected ErrTemplateParse, got %v", err)
			}
		})
	}
}

func TestSplitComment(t *testing.T) {
	header, body := splitComment([]byte("  /* a */\n{}"))
	if string(header) != "  /* a */\n" || string(body) != "{}" {
		t.Errorf("got header %q body %q", header, body)
	}
	header, body = splitComment([]byte(`{"a":"/* not a comment */"}`))
	if header != nil || string(body) != `{"a":"/* not a comment */"}` {
		t.Errorf("comment inside JSON must not be stripped: %q %q", header, body)
	}
}

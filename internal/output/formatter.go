// Package output renders command results as text tables or JSON.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/mattn/go-isatty"
)

const highlightStyle = "monokai"

// Formatter writes results either for people or as JSON.
type Formatter struct {
	json      bool
	highlight bool
	writer    io.Writer
}

// New creates a formatter writing to w. JSON written to a terminal is
// syntax highlighted.
func New(w io.Writer, jsonMode bool) *Formatter {
	return &Formatter{json: jsonMode, writer: w, highlight: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// JSON reports whether the formatter emits JSON.
func (f *Formatter) JSON() bool { return f.json }

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer { return f.writer }

// PrintJSON writes v as indented JSON regardless of mode.
func (f *Formatter) PrintJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	data = append(data, '\n')
	if f.highlight {
		var buf bytes.Buffer
		if err := quick.Highlight(&buf, string(data), "json", "terminal256", highlightStyle); err == nil {
			_, err = f.writer.Write(buf.Bytes())
			return err
		}
	}
	_, err = f.writer.Write(data)
	return err
}

// Print writes v as JSON in JSON mode, otherwise calls text.
func (f *Formatter) Print(v any, text func(w io.Writer) error) error {
	if f.json {
		return f.PrintJSON(v)
	}
	return text(f.writer)
}

// Message prints a one-line message.
func (f *Formatter) Message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if f.json {
		return f.PrintJSON(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(f.writer, msg)
	return err
}

// Table writes rows aligned in columns under header.
func Table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow(tw, header)
	for _, r := range rows {
		writeRow(tw, r)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}

// Package csvjson converts spreadsheet exports into JSON lookup files keyed by
// one column.
package csvjson

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/joshkremer/themesync/internal/fsutil"
)

// ErrKeyColumn is returned when the key column is absent from the header.
var ErrKeyColumn = errors.New("key column not found")

// Stats describes a conversion.
type Stats struct {
	Rows       int `json:"rows"`
	Keys       int `json:"keys"`
	Duplicates int `json:"duplicates"`
	EmptyKeys  int `json:"empty_keys"`
}

type row struct {
	key    string
	values []string
}

// Convert reads CSV with a header row from r and writes a JSON object to w
// that maps each row's key column value to an object of that row's columns.
// Keys and columns keep their CSV order. A repeated key keeps its first
// position and takes the later row's values; rows with an empty key are
// dropped.
func Convert(r io.Reader, w io.Writer, keyColumn string) (Stats, error) {
	var stats Stats
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return stats, fmt.Errorf("csv has no header row")
	}
	if err != nil {
		return stats, fmt.Errorf("reading csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	keyIdx := -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if header[i] == keyColumn {
			keyIdx = i
		}
	}
	if keyIdx < 0 {
		return stats, fmt.Errorf("%w: %q (columns: %s)", ErrKeyColumn, keyColumn, strings.Join(header, ", "))
	}

	var rows []row
	index := make(map[string]int)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("reading csv: %w", err)
		}
		stats.Rows++
		if keyIdx >= len(rec) || strings.TrimSpace(rec[keyIdx]) == "" {
			stats.EmptyKeys++
			continue
		}
		key := strings.TrimSpace(rec[keyIdx])
		if i, ok := index[key]; ok {
			stats.Duplicates++
			rows[i].values = rec
			continue
		}
		index[key] = len(rows)
		rows = append(rows, row{key: key, values: rec})
	}
	stats.Keys = len(rows)

	data, err := encode(header, rows)
	if err != nil {
		return stats, err
	}
	if _, err := w.Write(data); err != nil {
		return stats, fmt.Errorf("writing json: %w", err)
	}
	return stats, nil
}

// encode writes the rows as an indented JSON object. encoding/json sorts map
// keys, so the object is assembled by hand to keep CSV order.
func encode(header []string, rows []row) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(&buf, r.key)
		buf.WriteString(":{")
		for j, col := range header {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeString(&buf, col)
			buf.WriteByte(':')
			val := ""
			if j < len(r.values) {
				val = r.values[j]
			}
			writeString(&buf, val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("formatting json: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) {
	enc, _ := json.Marshal(s)
	buf.Write(enc)
}

// ConvertFile converts the CSV file in to the JSON file out on fs.
func ConvertFile(fs afero.Fs, in, out, keyColumn string) (Stats, error) {
	src, err := fs.Open(in)
	if err != nil {
		return Stats{}, fmt.Errorf("opening %s: %w", in, err)
	}
	defer src.Close()

	var buf bytes.Buffer
	stats, err := Convert(src, &buf, keyColumn)
	if err != nil {
		return stats, fmt.Errorf("converting %s: %w", in, err)
	}
	if err := fsutil.WriteFileMkdir(fs, out, buf.Bytes(), 0o644); err != nil {
		return stats, err
	}
	return stats, nil
}

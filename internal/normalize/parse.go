package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/lessonloop/scenario-backend/internal/types"
)

// ErrNotArray is returned when a remote payload parses but is not a JSON
// array of row objects.
var ErrNotArray = errors.New("payload is not a JSON array of rows")

// ParseJSONRows reads a remote payload: a JSON array of row-shaped objects.
// Values arrive loosely typed (orders and answers are often numbers); every
// value is coerced to its string form here so downstream code sees only
// RawRow. Keys are left as-is for Normalize to alias-resolve.
func ParseJSONRows(payload []byte) ([]types.RawRow, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("invalid JSON payload")
	}
	root := gjson.ParseBytes(payload)
	if !root.IsArray() {
		return nil, ErrNotArray
	}

	var rows []types.RawRow
	var badRecord error
	root.ForEach(func(_, rec gjson.Result) bool {
		if !rec.IsObject() {
			badRecord = fmt.Errorf("row %d is not an object", len(rows))
			return false
		}
		row := types.RawRow{}
		rec.ForEach(func(k, v gjson.Result) bool {
			if v.Type == gjson.Null {
				return true
			}
			row[k.String()] = strings.TrimSpace(v.String())
			return true
		})
		rows = append(rows, row)
		return true
	})
	if badRecord != nil {
		return nil, badRecord
	}
	return rows, nil
}

// ParseCSVRows reads the local fallback document: a CSV with a header row.
// Ragged rows are tolerated; missing cells read as empty and are handled by
// the normalizer's forward-fill.
func ParseCSVRows(r io.Reader) ([]types.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows []types.RawRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		row := types.RawRow{}
		for i, name := range header {
			if i >= len(rec) {
				break
			}
			row[name] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

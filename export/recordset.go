// Package export regenerates the static data module and the SQL seed
// statements from a set of endpoint records. It only produces text; writing
// files or committing them is up to the caller.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"apidocs-admin/models"
)

// LoadRecordSet decodes a JSON object of id -> record, keeping the key order
// of the document. Each record goes through the same projection as an upsert.
func LoadRecordSet(r io.Reader) ([]models.Endpoint, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read record set: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("record set must be a JSON object keyed by endpoint id")
	}

	var out []models.Endpoint
	seen := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read record id: %w", err)
		}
		id, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var fields map[string]json.RawMessage
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("record %q: %w", id, err)
		}
		e, err := models.NewEndpoint(id, fields)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", id, err)
		}

		// A repeated key replaces the earlier record in place.
		if i, dup := seen[id]; dup {
			out[i] = *e
			continue
		}
		seen[id] = len(out)
		out = append(out, *e)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read record set end: %w", err)
	}
	return out, nil
}

package export

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"apidocs-admin/models"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// WriteModule writes the records as a JavaScript module exporting one object
// literal keyed by id, in the order given.
func WriteModule(w io.Writer, varName string, records []models.Endpoint) error {
	if !identifier.MatchString(varName) {
		return fmt.Errorf("invalid variable name %q", varName)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "// Code generated by apidocs-export. DO NOT EDIT.")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "export const %s = {\n", varName)
	for _, rec := range records {
		rec.FillDefaults()
		key, err := json.Marshal(rec.Id)
		if err != nil {
			return err
		}
		body, err := json.MarshalIndent(rec, "  ", "  ")
		if err != nil {
			return fmt.Errorf("record %q: %w", rec.Id, err)
		}
		fmt.Fprintf(bw, "  %s: %s,\n", key, body)
	}
	fmt.Fprintln(bw, "};")
	return bw.Flush()
}

// SQLOptions tunes WriteSQL.
type SQLOptions struct {
	// Table overrides the model's table name.
	Table string
	// Upsert appends ON CONFLICT (id) DO UPDATE so the script can be re-run.
	Upsert bool
}

// WriteSQL writes one INSERT per record inside a single transaction.
// Absent values become empty literals, never NULL.
func WriteSQL(w io.Writer, records []models.Endpoint, opts SQLOptions) error {
	sch, err := schema.Parse(&models.Endpoint{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		return fmt.Errorf("parse endpoint schema: %w", err)
	}
	table := opts.Table
	if table == "" {
		table = sch.Table
	}
	if !identifier.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	columns := sch.DBNames
	var conflict string
	if opts.Upsert {
		sets := make([]string, 0, len(columns))
		for _, col := range columns {
			if col == sch.PrioritizedPrimaryField.DBName {
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
		conflict = fmt.Sprintf("\nON CONFLICT (%s) DO UPDATE SET %s", sch.PrioritizedPrimaryField.DBName, strings.Join(sets, ", "))
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "-- Code generated by apidocs-export. DO NOT EDIT.")
	fmt.Fprintln(bw, "BEGIN;")
	for _, rec := range records {
		rec.FillDefaults()
		rv := reflect.ValueOf(&rec).Elem()

		values := make([]string, 0, len(columns))
		for _, col := range columns {
			v, _ := sch.FieldsByDBName[col].ValueOf(context.Background(), rv)
			lit, err := literal(v)
			if err != nil {
				return fmt.Errorf("record %q column %s: %w", rec.Id, col, err)
			}
			values = append(values, lit)
		}
		fmt.Fprintf(bw, "INSERT INTO %s (%s) VALUES (%s)%s;\n",
			table, strings.Join(columns, ", "), strings.Join(values, ", "), conflict)
	}
	fmt.Fprintln(bw, "COMMIT;")
	return bw.Flush()
}

// Quote renders s as a SQL string literal, doubling single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func literal(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return Quote(t), nil
	case int:
		return strconv.Itoa(t), nil
	case pq.StringArray:
		if t == nil {
			t = pq.StringArray{}
		}
		arr, err := t.Value()
		if err != nil {
			return "", err
		}
		return Quote(arr.(string)) + "::text[]", nil
	case datatypes.JSON:
		var buf bytes.Buffer
		if err := json.Compact(&buf, t); err != nil {
			return "", err
		}
		return Quote(buf.String()) + "::jsonb", nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apidocs-admin/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestExportValidate(t *testing.T) {
	cases := map[string]struct {
		opts    ExportOptions
		args    []string
		wantErr bool
	}{
		"file to sql":     {opts: ExportOptions{Input: "in.json", SQLOut: "out.sql"}},
		"db to module":    {opts: ExportOptions{FromDB: true, ModuleOut: "-"}},
		"no source":       {opts: ExportOptions{SQLOut: "out.sql"}, wantErr: true},
		"two sources":     {opts: ExportOptions{Input: "in.json", FromDB: true, SQLOut: "out.sql"}, wantErr: true},
		"no output":       {opts: ExportOptions{Input: "in.json"}, wantErr: true},
		"double stdout":   {opts: ExportOptions{Input: "in.json", SQLOut: "-", ModuleOut: "-"}, wantErr: true},
		"stray arguments": {opts: ExportOptions{Input: "in.json", SQLOut: "-"}, args: []string{"extra"}, wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.opts.Validate(tc.args)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExportFromFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "endpoints.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"login":{"name":"O'Brien login","rank":1}}`), 0o600))

	moduleOut := filepath.Join(dir, "apiData.js")
	sqlOut := filepath.Join(dir, "seed.sql")

	cmd := NewCmdExport(quietLog())
	cmd.SetArgs([]string{"-i", in, "--module-out", moduleOut, "--sql-out", sqlOut, "--var", "endpointData", "--upsert"})
	require.NoError(t, cmd.Execute())

	module, err := os.ReadFile(moduleOut)
	require.NoError(t, err)
	assert.Contains(t, string(module), "export const endpointData = {")
	assert.Contains(t, string(module), `"login": {`)

	sql, err := os.ReadFile(sqlOut)
	require.NoError(t, err)
	assert.Contains(t, string(sql), `'O''Brien login'`)
	assert.Contains(t, string(sql), "ON CONFLICT (id) DO UPDATE")

	leftovers, err := filepath.Glob(filepath.Join(dir, ".apidocs-export-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestExportFromDatabaseToStdout(t *testing.T) {
	o := DefaultExportOptions(quietLog())
	o.FromDB = true
	o.SQLOut = "-"
	o.loadDB = func(ctx context.Context) ([]models.Endpoint, error) {
		return []models.Endpoint{{Id: "a", Rank: 1}, {Id: "b", Rank: 2}}, nil
	}
	require.NoError(t, o.Validate(nil))

	var out bytes.Buffer
	require.NoError(t, o.Run(context.Background(), &out))
	assert.Equal(t, 2, strings.Count(out.String(), "INSERT INTO api_endpoints"))
	assert.Less(t, strings.Index(out.String(), "VALUES ('a'"), strings.Index(out.String(), "VALUES ('b'"))
}

func TestExportMissingInput(t *testing.T) {
	o := DefaultExportOptions(quietLog())
	o.Input = filepath.Join(t.TempDir(), "missing.json")
	o.SQLOut = "-"
	assert.Error(t, o.Run(context.Background(), io.Discard))
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"apidocs-admin/config"
	"apidocs-admin/database"
	"apidocs-admin/export"
	"apidocs-admin/models"
	"apidocs-admin/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ExportOptions struct {
	Input     string
	FromDB    bool
	ModuleOut string
	SQLOut    string
	VarName   string
	Table     string
	Upsert    bool

	log logrus.FieldLogger
	// loadDB is swapped out in tests.
	loadDB func(ctx context.Context) ([]models.Endpoint, error)
}

func DefaultExportOptions(log logrus.FieldLogger) *ExportOptions {
	o := &ExportOptions{
		VarName: "apiData",
		log:     log,
	}
	o.loadDB = o.listFromDatabase
	return o
}

func NewCmdExport(log logrus.FieldLogger) *cobra.Command {
	o := DefaultExportOptions(log)
	cmd := &cobra.Command{
		Use:   "apidocs-export (-i FILE | --from-db) [--module-out FILE] [--sql-out FILE]",
		Short: "Regenerate the static endpoint data module and SQL seed statements.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ExportOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Input, "input", "i", o.Input, "JSON file holding an object of endpoint id -> record.")
	fs.BoolVar(&o.FromDB, "from-db", o.FromDB, "Read the records from the configured database instead of a file.")
	fs.StringVar(&o.ModuleOut, "module-out", o.ModuleOut, "Where to write the JavaScript data module ('-' for stdout).")
	fs.StringVar(&o.SQLOut, "sql-out", o.SQLOut, "Where to write the SQL insert statements ('-' for stdout).")
	fs.StringVar(&o.VarName, "var", o.VarName, "Name of the exported constant in the data module.")
	fs.StringVar(&o.Table, "table", o.Table, "Target table for the inserts (defaults to the endpoint table).")
	fs.BoolVar(&o.Upsert, "upsert", o.Upsert, "Add ON CONFLICT (id) DO UPDATE to every insert.")
}

func (o *ExportOptions) Validate(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	if (o.Input == "") == !o.FromDB {
		return fmt.Errorf("specify exactly one of -i FILE or --from-db")
	}
	if o.ModuleOut == "" && o.SQLOut == "" {
		return fmt.Errorf("nothing to do: set --module-out and/or --sql-out")
	}
	if o.ModuleOut == "-" && o.SQLOut == "-" {
		return fmt.Errorf("only one output can go to stdout")
	}
	return nil
}

func (o *ExportOptions) Run(ctx context.Context, stdout io.Writer) error {
	records, err := o.load(ctx)
	if err != nil {
		return err
	}
	o.log.WithField("records", len(records)).Info("loaded endpoint records")

	if o.ModuleOut != "" {
		if err := writeTo(o.ModuleOut, stdout, func(w io.Writer) error {
			return export.WriteModule(w, o.VarName, records)
		}); err != nil {
			return fmt.Errorf("write module: %w", err)
		}
		o.log.WithField("out", o.ModuleOut).Info("wrote data module")
	}
	if o.SQLOut != "" {
		if err := writeTo(o.SQLOut, stdout, func(w io.Writer) error {
			return export.WriteSQL(w, records, export.SQLOptions{Table: o.Table, Upsert: o.Upsert})
		}); err != nil {
			return fmt.Errorf("write sql: %w", err)
		}
		o.log.WithField("out", o.SQLOut).Info("wrote sql statements")
	}
	return nil
}

func (o *ExportOptions) load(ctx context.Context) ([]models.Endpoint, error) {
	if o.FromDB {
		return o.loadDB(ctx)
	}
	f, err := os.Open(o.Input)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return export.LoadRecordSet(f)
}

func (o *ExportOptions) listFromDatabase(ctx context.Context) ([]models.Endpoint, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg, o.log)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return store.NewGormEndpointStore(db, o.log).List(ctx)
}

// writeTo writes to path, or to stdout when path is "-". The file is only
// replaced once generation succeeded.
func writeTo(path string, stdout io.Writer, gen func(io.Writer) error) error {
	if path == "-" {
		return gen(stdout)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".apidocs-export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gen(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

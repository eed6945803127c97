package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/mfi-cli/internal/export"
	"github.com/sells-group/mfi-cli/internal/pipeline"
	"github.com/sells-group/mfi-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "mfi.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// computePass opens the store and runs one computation pass over it.
func computePass(ctx context.Context, cycleID string, persist bool) (*pipeline.Result, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	runner, err := pipeline.New(cfg, st, st, nil)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx, pipeline.Request{CycleID: cycleID, Persist: persist})
}

// reportFlags are shared by the commands that print a computed report.
type reportFlags struct {
	cycle  string
	format string
	output string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.cycle, "cycle", "", "cycle ID (default: the active cycle)")
	cmd.Flags().StringVar(&f.format, "format", "table", "output format: table, csv, json or xlsx")
	cmd.Flags().StringVar(&f.output, "output", "", "output file (default: stdout)")
}

// write renders a report to the configured output. XLSX requires a file.
func (f *reportFlags) write(cmd *cobra.Command, payload any, sheets ...export.Sheet) error {
	format, err := export.ParseFormat(f.format)
	if err != nil {
		return err
	}
	if format == export.FormatXLSX && f.output == "" {
		return eris.New("xlsx output requires --output")
	}

	var w io.Writer = cmd.OutOrStdout()
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer file.Close() //nolint:errcheck
		w = file
	}
	return export.Write(w, format, payload, sheets...)
}

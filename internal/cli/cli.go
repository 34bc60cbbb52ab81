// Package cli holds helpers shared by the biomap commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/cognicore/biomap/pkg/biomap/store"
	"github.com/cognicore/biomap/pkg/biomap/store/sqlite"
)

// LoadEnv loads variables from a dotenv file without overriding the
// environment. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// OpenLedger opens the SQLite run ledger. An empty path returns a nil
// ledger and a no-op cleanup.
func OpenLedger(ctx context.Context, path string) (store.Ledger, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	ledger, err := sqlite.OpenSQLite(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	return ledger, func() { ledger.Close() }, nil
}

var (
	label = color.New(color.Bold)
	good  = color.New(color.FgGreen)
	warn  = color.New(color.FgYellow)
)

// Summary prints one "label: value" line. The value is green when ok and
// yellow otherwise.
func Summary(w io.Writer, name string, value any, ok bool) {
	c := good
	if !ok {
		c = warn
	}
	label.Fprintf(w, "%-12s", name+":")
	c.Fprintf(w, " %v\n", value)
}

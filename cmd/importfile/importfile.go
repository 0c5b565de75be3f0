// Package importfile imports a single local CSV file
package importfile

import (
	"context"
	"fmt"
	"io"

	"csvimport/csv-import/cmd/root"
	"csvimport/csv-import/internal/importer"
	"csvimport/csv-import/internal/validation"

	"github.com/spf13/cobra"
)

var dryRun bool

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a local CSV file",
	Long: `Import a single local CSV file into the ledger and print the outcome.
Direct debits are written to a DTAUS file in the configured batch directory.
With --dry-run every row is checked against the ledger but nothing is saved.

Example:
  csv-import import transactions.csv --dry-run`,
	Args: cobra.ExactArgs(1),
	Run:  importFunc,
}

func init() {
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate rows without saving transfers or writing a DTAUS file")
}

func importFunc(cmd *cobra.Command, args []string) {
	logger := root.GetLogger()

	appContainer := root.GetContainer()
	if appContainer == nil {
		logger.Fatal("Container not initialized")
	}

	if err := importLocal(cmd.Context(), appContainer.GetImporter(), args[0], dryRun, cmd.OutOrStdout()); err != nil {
		logger.Fatalf("Import failed: %v", err)
	}
}

func importLocal(ctx context.Context, imp *importer.Importer, path string, dryRun bool, out io.Writer) error {
	if err := validation.IsImportFile(path); err != nil {
		return err
	}
	outcome := imp.ImportFile(ctx, path, dryRun)
	if _, err := fmt.Fprintln(out, outcome.Summary()); err != nil {
		return err
	}
	if !outcome.Success() {
		return fmt.Errorf("%d row error(s)", len(outcome.Errors))
	}
	return nil
}

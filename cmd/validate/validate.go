// Package validate checks a CSV file without importing it
package validate

import (
	"context"
	"fmt"
	"io"
	"os"

	"csvimport/csv-import/cmd/root"
	"csvimport/csv-import/internal/fileutils"
	"csvimport/csv-import/internal/importer"
	"csvimport/csv-import/internal/validation"

	"github.com/spf13/cobra"
)

var outputFile string

// Cmd represents the validate command
var Cmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a CSV file and report every row",
	Long: `Run a dry import of a CSV file and write a report with the classification of
every row: line, activity id, transaction kind, status and message.
The report goes to stdout unless --output is given.

Example:
  csv-import validate transactions.csv -o report.csv`,
	Args: cobra.ExactArgs(1),
	Run:  validateFunc,
}

func init() {
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the row report to this file")
}

func validateFunc(cmd *cobra.Command, args []string) {
	logger := root.GetLogger()

	appContainer := root.GetContainer()
	if appContainer == nil {
		logger.Fatal("Container not initialized")
	}

	var out io.Writer = cmd.OutOrStdout()
	var reportFile *os.File
	if outputFile != "" {
		f, err := fileutils.CreateFile(outputFile)
		if err != nil {
			logger.Fatalf("Failed to create report file: %v", err)
		}
		reportFile = f
		out = f
	}

	ok, err := validateFile(cmd.Context(), appContainer.GetImporter(), args[0], appContainer.GetDelimiter(), out, cmd.ErrOrStderr())
	if reportFile != nil {
		if cerr := reportFile.Close(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to close report file")
		}
	}
	if err != nil {
		logger.Fatalf("Validation failed: %v", err)
	}
	if !ok {
		logger.Fatal("File has rejected rows")
	}
}

// validateFile writes the row report to out and the dry-run outcome to
// summary. It reports whether the file would import cleanly.
func validateFile(ctx context.Context, imp *importer.Importer, path string, delimiter rune, out, summary io.Writer) (bool, error) {
	if err := validation.IsImportFile(path); err != nil {
		return false, err
	}
	reports, err := imp.Inspect(path)
	if err != nil {
		return false, err
	}
	if err := importer.WriteRowReports(out, reports, delimiter); err != nil {
		return false, err
	}

	outcome := imp.ImportFile(ctx, path, true)
	if _, err := fmt.Fprintln(summary, outcome.Summary()); err != nil {
		return false, err
	}
	return outcome.Success(), nil
}

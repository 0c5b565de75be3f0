// Package run handles one import cycle against the remote drop box
package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"csvimport/csv-import/cmd/root"
	"csvimport/csv-import/internal/importer"

	"github.com/spf13/cobra"
)

var notifyFlag bool

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Import all eligible files from the remote drop box",
	Long: `Download every CSV file that has a .start marker from the remote drop box and
import it. Files are processed in name order; the first failing file stops the
run and its error report is uploaded next to the processed files.

Example:
  csv-import run --notify=false`,
	Args: cobra.NoArgs,
	Run:  runFunc,
}

func init() {
	Cmd.Flags().BoolVar(&notifyFlag, "notify", true, "Send an e-mail for every imported or failed file")
}

func runFunc(cmd *cobra.Command, args []string) {
	logger := root.GetLogger()

	appContainer := root.GetContainer()
	if appContainer == nil {
		logger.Fatal("Container not initialized")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := appContainer.ConnectRemote(ctx); err != nil {
		logger.Fatalf("Failed to connect to remote: %v", err)
	}

	if err := runImport(ctx, appContainer.GetImporter(), notifyFlag, cmd.OutOrStdout()); err != nil {
		logger.Fatalf("Import run failed: %v", err)
	}
}

// runImport runs one cycle and prints a line per file.
func runImport(ctx context.Context, imp *importer.Importer, sendMail bool, out io.Writer) error {
	report, err := imp.Run(ctx, sendMail)
	for _, f := range report.Files {
		if _, werr := fmt.Fprintf(out, "%s\t%s\t%s\n", f.Entry, f.State, f.Outcome.Summary()); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if report.Failed() {
		last := report.Files[len(report.Files)-1]
		return fmt.Errorf("import of %s failed: %s", last.Entry, last.Outcome.Summary())
	}
	return nil
}

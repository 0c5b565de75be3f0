// Package importer drives the import of CSV files: one file at a time, one
// row at a time, stopping at the first error.
package importer

import (
	"context"
	"fmt"
	"time"

	"csvimport/csv-import/internal/currencyutils"
	"csvimport/csv-import/internal/dispatcher"
	"csvimport/csv-import/internal/dtaus"
	"csvimport/csv-import/internal/importerror"
	"csvimport/csv-import/internal/logging"
	"csvimport/csv-import/internal/models"
	"csvimport/csv-import/internal/notify"
	"csvimport/csv-import/internal/remote"
)

// FileState is the processing state of one file.
type FileState string

const (
	StateStaged     FileState = "staged"
	StateParsing    FileState = "parsing"
	StateProcessing FileState = "processing"
	StateSucceeded  FileState = "succeeded"
	StateFailed     FileState = "failed"
)

// Gate moves files between the drop box and the local directories.
type Gate interface {
	Prepare() error
	ListEligible(ctx context.Context) ([]string, error)
	Stage(ctx context.Context, entry string) (remote.StagedFile, error)
	UploadReport(ctx context.Context, entry, content string) error
}

// RowParser reads an import file into rows.
type RowParser interface {
	ParseFile(path string) ([]models.Row, error)
}

// RowClassifier turns a row into a transaction.
type RowClassifier interface {
	Classify(row models.Row) (models.Transaction, error)
}

// TransactionDispatcher applies a transaction.
type TransactionDispatcher interface {
	Dispatch(ctx context.Context, tx models.Transaction, batch dispatcher.Batch, dryRun bool) error
}

// BatchSettings describe the DTAUS file written for direct debits.
type BatchSettings struct {
	Kind   dtaus.Kind
	Sender dtaus.Account
	Dir    string
	Suffix string
}

// Deps are the collaborators of an Importer. Gate and Notifier are only
// needed by Run.
type Deps struct {
	Gate       Gate
	Parser     RowParser
	Classifier RowClassifier
	Dispatcher TransactionDispatcher
	Notifier   notify.Notifier
	Batch      BatchSettings
	Logger     logging.Logger
	Now        func() time.Time
}

// Importer imports files.
type Importer struct {
	gate       Gate
	parser     RowParser
	classifier RowClassifier
	dispatcher TransactionDispatcher
	notifier   notify.Notifier
	batch      BatchSettings
	logger     logging.Logger
	now        func() time.Time
}

// New creates an Importer.
func New(d Deps) *Importer {
	im := &Importer{
		gate:       d.Gate,
		parser:     d.Parser,
		classifier: d.Classifier,
		dispatcher: d.Dispatcher,
		notifier:   d.Notifier,
		batch:      d.Batch,
		logger:     d.Logger,
		now:        d.Now,
	}
	if im.logger == nil {
		im.logger = logging.NewDiscardLogger()
	}
	if im.now == nil {
		im.now = time.Now
	}
	if im.notifier == nil {
		im.notifier = notify.NewLogNotifier(im.logger)
	}
	return im
}

// dataLost is the outcome of a file whose import broke down as a whole.
func dataLost(err error) models.Outcome {
	return models.Outcome{
		Succeeded: []string{importerror.DataLost},
		Errors:    []string{err.Error()},
	}
}

// ImportFile imports the file at path. Rows are applied in order until the
// first error; that error is the only one in the outcome. Direct debits are
// written as a DTAUS batch only when every row succeeded, outside dry-run
// mode, and when there is at least one. Failures of the file as a whole,
// including panics, yield a "data lost" outcome. Cancelling ctx does not
// interrupt a file once started.
func (im *Importer) ImportFile(ctx context.Context, path string, dryRun bool) (outcome models.Outcome) {
	log := im.logger.WithFields(
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldDryRun, dryRun),
	)
	start := im.now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("import aborted: %v", r)
			log.WithError(err).Error("Import panicked")
			outcome = dataLost(err)
		}
		log.Info("Imported file",
			logging.F(logging.FieldStatus, outcome.Summary()),
			logging.F(logging.FieldDuration, im.now().Sub(start).Milliseconds()))
	}()

	result, err := im.importFile(context.WithoutCancel(ctx), path, dryRun, log)
	if err != nil {
		log.WithError(err).Error("Import failed")
		return dataLost(err)
	}
	return result
}

func (im *Importer) importFile(ctx context.Context, path string, dryRun bool, log logging.Logger) (models.Outcome, error) {
	var outcome models.Outcome

	log.Debug("File state", logging.F(logging.FieldState, string(StateParsing)))
	rows, err := im.parser.ParseFile(path)
	if err != nil {
		return outcome, err
	}

	batch := dtaus.New(im.batch.Kind, im.batch.Sender, im.now())
	log.Debug("File state",
		logging.F(logging.FieldState, string(StateProcessing)),
		logging.F(logging.FieldCount, len(rows)),
		logging.F(logging.FieldBatch, batch.Name()))

	for _, row := range rows {
		if row.IsBlank() {
			continue
		}
		if err := im.processRow(ctx, row, batch, dryRun); err != nil {
			outcome.Errors = append(outcome.Errors, err.Error())
			break
		}
		outcome.Succeeded = append(outcome.Succeeded, row.ActivityID())
	}

	if outcome.Success() && !dryRun && !batch.IsEmpty() {
		written, err := batch.Finalize(im.batch.Dir, im.batch.Suffix)
		if err != nil {
			return outcome, fmt.Errorf("write DTAUS batch: %w", err)
		}
		log.Info("Wrote DTAUS batch",
			logging.F(logging.FieldBatch, batch.Name()),
			logging.F(logging.FieldCount, batch.Len()),
			logging.F("total", currencyutils.FormatAmount(batch.Total())),
			logging.F(logging.FieldLocalPath, written))
	}
	return outcome, nil
}

func (im *Importer) processRow(ctx context.Context, row models.Row, batch *dtaus.Batch, dryRun bool) error {
	tx, err := im.classifier.Classify(row)
	if err != nil {
		return err
	}
	return im.dispatcher.Dispatch(ctx, tx, batch, dryRun)
}

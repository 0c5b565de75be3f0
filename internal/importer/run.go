package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"csvimport/csv-import/internal/logging"
	"csvimport/csv-import/internal/models"
	"csvimport/csv-import/internal/notify"
)

// ErrNoGate is returned by Run when the Importer has no Gate.
var ErrNoGate = errors.New("importer: no remote gate configured")

// FileReport is the result of one file of a run.
type FileReport struct {
	Entry   string
	State   FileState
	Outcome models.Outcome
}

// RunReport lists the files a run handled, in order.
type RunReport struct {
	Files []FileReport
}

// Failed reports whether the run stopped at a failed file.
func (r RunReport) Failed() bool {
	for _, f := range r.Files {
		if f.State == StateFailed {
			return true
		}
	}
	return false
}

// SuccessMessage is the feedback body for an imported file.
func SuccessMessage(entry string) string {
	return fmt.Sprintf("Import of the file %s done.", entry)
}

// ErrorReport is the feedback body and uploaded report for a failed file.
func ErrorReport(entry string, outcome models.Outcome) string {
	return strings.Join([]string{
		fmt.Sprintf("Import of the file %s failed with errors:", entry),
		outcome.Summary(),
	}, "\n")
}

// Run imports every eligible remote file in name order. A successfully
// imported file is removed locally. The first failed file gets its error
// report uploaded and ends the run. Transfer errors abort the run and are
// returned. ctx is checked between files only. With sendMail set, each file
// result is sent to the Notifier.
func (im *Importer) Run(ctx context.Context, sendMail bool) (RunReport, error) {
	var report RunReport
	if im.gate == nil {
		return report, ErrNoGate
	}
	if err := im.gate.Prepare(); err != nil {
		return report, err
	}

	entries, err := im.gate.ListEligible(ctx)
	if err != nil {
		return report, err
	}
	im.logger.Info("Found eligible files", logging.F(logging.FieldCount, len(entries)))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		log := im.logger.WithField(logging.FieldEntry, entry)

		staged, err := im.gate.Stage(ctx, entry)
		if err != nil {
			return report, err
		}
		// A staged file runs to its outcome even when the run is cancelled.
		fileCtx := context.WithoutCancel(ctx)
		log.Info("File state", logging.F(logging.FieldState, string(StateStaged)))

		outcome := im.ImportFile(fileCtx, staged.LocalPath, false)
		if outcome.Success() {
			report.Files = append(report.Files, FileReport{Entry: entry, State: StateSucceeded, Outcome: outcome})
			log.Info("File state", logging.F(logging.FieldState, string(StateSucceeded)))
			if err := staged.Remove(); err != nil {
				log.WithError(err).Warn("Failed to remove staged file")
			}
			im.notify(fileCtx, sendMail, notify.SubjectSuccess, SuccessMessage(entry))
			continue
		}

		report.Files = append(report.Files, FileReport{Entry: entry, State: StateFailed, Outcome: outcome})
		log.Warn("File state",
			logging.F(logging.FieldState, string(StateFailed)),
			logging.F(logging.FieldStatus, outcome.Summary()))

		content := ErrorReport(entry, outcome)
		if err := im.gate.UploadReport(fileCtx, entry, content); err != nil {
			return report, err
		}
		im.notify(fileCtx, sendMail, notify.SubjectFailure, content)
		break
	}
	return report, nil
}

func (im *Importer) notify(ctx context.Context, sendMail bool, subject, body string) {
	if !sendMail {
		return
	}
	if err := im.notifier.Notify(ctx, subject, body); err != nil {
		im.logger.WithError(err).Warn("Failed to send import feedback", logging.F("subject", subject))
	}
}

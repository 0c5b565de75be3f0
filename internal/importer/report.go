package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"csvimport/csv-import/internal/logging"

	"github.com/gocarina/gocsv"
)

// Row statuses of a classification report.
const (
	RowOK       = "ok"
	RowRejected = "rejected"
	RowSkipped  = "skipped"
)

// RowReport is the classification result of a single row.
type RowReport struct {
	Line       int    `csv:"line"`
	ActivityID string `csv:"activity_id"`
	Kind       string `csv:"kind"`
	Status     string `csv:"status"`
	Message    string `csv:"message"`
}

// Inspect classifies every row of the file at path without applying any of
// them. Unlike ImportFile it does not stop at the first rejected row.
func (im *Importer) Inspect(path string) ([]RowReport, error) {
	rows, err := im.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}

	reports := make([]RowReport, 0, len(rows))
	for _, row := range rows {
		r := RowReport{Line: row.Line(), ActivityID: row.ActivityID()}
		if row.IsBlank() {
			r.Status = RowSkipped
			reports = append(reports, r)
			continue
		}

		tx, err := im.classifier.Classify(row)
		if tx != nil {
			r.Kind = tx.Kind().String()
		}
		if err != nil {
			r.Status = RowRejected
			r.Message = err.Error()
		} else {
			r.Status = RowOK
		}
		reports = append(reports, r)
	}

	im.logger.Debug("Inspected import file",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(reports)))
	return reports, nil
}

// WriteRowReports writes reports as delimited text with a header line.
func WriteRowReports(w io.Writer, reports []RowReport, delimiter rune) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(reports, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return nil
}

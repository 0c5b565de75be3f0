package models

import (
	"fmt"
	"strings"
)

// Record is the typed view of a Row using the canonical column set.
type Record struct {
	Line            int
	ActivityID      string
	DepotActivityID string
	UmsatzKey       string
	Amount          string
	EntryDate       string
	SenderBLZ       string
	SenderKonto     string
	SenderName      string
	ReceiverBLZ     string
	ReceiverKonto   string
	ReceiverName    string
	Descriptions    [DescriptionColumns]string
}

// RecordFromRow extracts the canonical columns of row.
func RecordFromRow(row Row) Record {
	rec := Record{
		Line:            row.Line(),
		ActivityID:      row.Get(ColumnActivityID),
		DepotActivityID: row.Get(ColumnDepotActivityID),
		UmsatzKey:       row.Get(ColumnUmsatzKey),
		Amount:          row.Get(ColumnAmount),
		EntryDate:       row.Get(ColumnEntryDate),
		SenderBLZ:       row.Get(ColumnSenderBLZ),
		SenderKonto:     row.Get(ColumnSenderKonto),
		SenderName:      row.Get(ColumnSenderName),
		ReceiverBLZ:     row.Get(ColumnReceiverBLZ),
		ReceiverKonto:   row.Get(ColumnReceiverKonto),
		ReceiverName:    row.Get(ColumnReceiverName),
	}
	for i := range rec.Descriptions {
		rec.Descriptions[i] = row.Get(DescriptionColumn(i + 1))
	}
	return rec
}

// DescriptionColumn returns the name of the n-th description column (1-based).
func DescriptionColumn(n int) string {
	return fmt.Sprintf("DESC%d", n)
}

// Subject concatenates DESC1..DESC14 in order without separator, skipping
// blank fragments.
func (r Record) Subject() string {
	var b strings.Builder
	for _, fragment := range r.Descriptions {
		if strings.TrimSpace(fragment) == "" {
			continue
		}
		b.WriteString(fragment)
	}
	return b.String()
}

// HasPendingLink reports whether the row refers to an existing transfer.
func (r Record) HasPendingLink() bool {
	return strings.TrimSpace(r.DepotActivityID) != ""
}

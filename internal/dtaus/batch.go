// Package dtaus accumulates direct-debit entries into one batch and writes
// it as a DTAUS exchange file.
package dtaus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"csvimport/csv-import/internal/fileutils"
	"csvimport/csv-import/internal/models"

	"github.com/shopspring/decimal"
)

// Kind is the DTAUS file type.
type Kind string

const (
	// KindDebit collects direct debits (Lastschriften).
	KindDebit Kind = "LK"
	// KindCredit collects credit transfers (Gutschriften).
	KindCredit Kind = "GK"
)

// DefaultFileSuffix is appended to the batch name when it is written.
const DefaultFileSuffix = "_201.dta"

// ErrEmptyBatch is returned when finalizing a batch without entries.
var ErrEmptyBatch = errors.New("dtaus: batch has no entries")

var (
	accountPattern  = regexp.MustCompile(`^\d{1,10}$`)
	bankCodePattern = regexp.MustCompile(`^[1-8]\d{7}$`)
)

// Account identifies a bank account and its holder.
type Account struct {
	Number   string
	BankCode string
	Holder   string
}

// Entry is one booking of the batch.
type Entry struct {
	Account  string
	BankCode string
	Holder   string
	Amount   decimal.Decimal
	Subject  string
}

// Batch is the in-memory accumulator for one import attempt.
type Batch struct {
	name    string
	kind    Kind
	sender  Account
	created time.Time
	entries []Entry
}

// NameFor derives the batch name from its creation time.
func NameFor(t time.Time) string {
	return "DTAUS" + t.Format("20060102_150405")
}

// New starts an empty batch on behalf of sender.
func New(kind Kind, sender Account, created time.Time) *Batch {
	if kind == "" {
		kind = KindDebit
	}
	return &Batch{
		name:    NameFor(created),
		kind:    kind,
		sender:  sender,
		created: created,
	}
}

// Name returns the batch identifier.
func (b *Batch) Name() string { return b.name }

// Kind returns the DTAUS file type of the batch.
func (b *Batch) Kind() Kind { return b.kind }

// Sender returns the account the batch is issued for.
func (b *Batch) Sender() Account { return b.sender }

// Len returns the number of entries.
func (b *Batch) Len() int { return len(b.entries) }

// IsEmpty reports whether the batch has no entries.
func (b *Batch) IsEmpty() bool { return len(b.entries) == 0 }

// Entries returns a copy of the entries in insertion order.
func (b *Batch) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// ValidSender reports whether account and bankCode can appear as the
// counterparty of a booking: an account number of at most ten digits that is
// not zero, and an eight digit bank code.
func (b *Batch) ValidSender(account, bankCode string) bool {
	if !accountPattern.MatchString(account) || strings.Trim(account, "0") == "" {
		return false
	}
	return bankCodePattern.MatchString(bankCode)
}

// Add appends an entry. The amount must be non-zero and have at most two
// decimal places; its sign is ignored.
func (b *Batch) Add(e Entry) error {
	if !b.ValidSender(e.Account, e.BankCode) {
		return fmt.Errorf("dtaus: invalid account %q / bank code %q", e.Account, e.BankCode)
	}
	if strings.TrimSpace(e.Holder) == "" {
		return fmt.Errorf("dtaus: holder of account %s is blank", e.Account)
	}
	e.Amount = e.Amount.Abs()
	if _, err := cents(e.Amount); err != nil {
		return err
	}
	b.entries = append(b.entries, e)
	return nil
}

// Total returns the sum of all entry amounts.
func (b *Batch) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range b.entries {
		total = total.Add(e.Amount)
	}
	return total
}

// FileName returns the name the batch is written under.
func (b *Batch) FileName(suffix string) string {
	if suffix == "" {
		suffix = DefaultFileSuffix
	}
	return b.name + suffix
}

// Finalize writes the batch to dir and returns the file path. Empty batches
// are never written.
func (b *Batch) Finalize(dir, suffix string) (string, error) {
	if b.IsEmpty() {
		return "", ErrEmptyBatch
	}
	if err := fileutils.EnsureDirectoryExists(dir); err != nil {
		return "", err
	}

	target := filepath.Join(dir, b.FileName(suffix))
	tmp, err := os.CreateTemp(dir, "."+b.name+"-*")
	if err != nil {
		return "", fmt.Errorf("dtaus: create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := b.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("dtaus: close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), models.PermissionReportFile); err != nil {
		return "", fmt.Errorf("dtaus: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("dtaus: move batch into place: %w", err)
	}
	return target, nil
}

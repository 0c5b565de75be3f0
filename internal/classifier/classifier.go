// Package classifier validates import rows and decides which kind of
// transaction each one describes.
package classifier

import (
	"strings"

	"csvimport/csv-import/internal/importerror"
	"csvimport/csv-import/internal/models"
)

// DefaultClearingCode is the operator's own bank code; direct debits are
// rows whose receiver is this bank.
const DefaultClearingCode = "70022200"

// DefaultAllowedKeys lists the UMSATZ_KEY values accepted by default.
var DefaultAllowedKeys = []string{models.UmsatzKeyTransfer, models.UmsatzKeyDirectDebit}

// Classifier applies the row rules. The zero value is not usable; use New.
type Classifier struct {
	allowedKeys  map[string]bool
	clearingCode string
}

// New creates a Classifier. Empty arguments fall back to the defaults.
func New(allowedKeys []string, clearingCode string) *Classifier {
	if len(allowedKeys) == 0 {
		allowedKeys = DefaultAllowedKeys
	}
	if clearingCode == "" {
		clearingCode = DefaultClearingCode
	}
	allowed := make(map[string]bool, len(allowedKeys))
	for _, key := range allowedKeys {
		allowed[key] = true
	}
	return &Classifier{allowedKeys: allowed, clearingCode: clearingCode}
}

// Kind determines the transaction kind of rec. Rules are checked in priority
// order, so a row between two internal accounts is an AccountTransfer even
// when its key also fits a BankTransfer.
func (c *Classifier) Kind(rec models.Record) models.Kind {
	switch {
	case rec.SenderBLZ == models.InternalBankCode && rec.ReceiverBLZ == models.InternalBankCode:
		return models.KindAccountTransfer
	case rec.SenderBLZ == models.InternalBankCode && rec.UmsatzKey == models.UmsatzKeyTransfer:
		return models.KindBankTransfer
	case rec.ReceiverBLZ == c.clearingCode && rec.UmsatzKey == models.UmsatzKeyDirectDebit:
		return models.KindDirectDebit
	default:
		return models.KindUnknown
	}
}

// Classify validates row and returns its typed transaction. A rejected row
// yields a *importerror.ValidationError; for rows matching no rule the
// returned transaction is models.Unknown alongside the error.
func (c *Classifier) Classify(row models.Row) (models.Transaction, error) {
	rec := models.RecordFromRow(row)

	if !c.allowedKeys[rec.UmsatzKey] {
		return nil, importerror.Invalid(rec.ActivityID, "UMSATZ_KEY %s is not allowed", rec.UmsatzKey)
	}

	kind := c.Kind(rec)
	if kind == models.KindUnknown {
		return models.Unknown{Record: rec}, importerror.Invalid(rec.ActivityID, "Transaction type not found")
	}

	switch kind {
	case models.KindAccountTransfer:
		return models.AccountTransfer{
			Record:            rec,
			Amount:            rec.Amount,
			Subject:           rec.Subject(),
			SenderAccount:     rec.SenderKonto,
			ReceiverAccount:   rec.ReceiverKonto,
			PendingTransferID: strings.TrimSpace(rec.DepotActivityID),
		}, nil
	case models.KindBankTransfer:
		return models.BankTransfer{
			Record:           rec,
			Amount:           rec.Amount,
			Subject:          rec.Subject(),
			SenderAccount:    rec.SenderKonto,
			ReceiverHolder:   rec.ReceiverName,
			ReceiverAccount:  rec.ReceiverKonto,
			ReceiverBankCode: rec.ReceiverBLZ,
		}, nil
	default:
		return models.DirectDebit{
			Record:         rec,
			Amount:         rec.Amount,
			Subject:        rec.Subject(),
			SenderAccount:  rec.SenderKonto,
			SenderBankCode: rec.SenderBLZ,
			SenderName:     rec.SenderName,
		}, nil
	}
}

// Package dispatcher applies classified transactions to the ledger or the
// DTAUS batch.
package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"csvimport/csv-import/internal/currencyutils"
	"csvimport/csv-import/internal/dateutils"
	"csvimport/csv-import/internal/dtaus"
	"csvimport/csv-import/internal/importerror"
	"csvimport/csv-import/internal/ledger"
	"csvimport/csv-import/internal/logging"
	"csvimport/csv-import/internal/models"
	"csvimport/csv-import/internal/retry"
	"csvimport/csv-import/internal/textutils"
)

// Ledger is the persistence the dispatcher books transfers into.
// FindAccount and FindAccountTransfer return nil without error when nothing
// matches.
type Ledger interface {
	FindAccount(ctx context.Context, number string) (*ledger.Account, error)
	FindAccountTransfer(ctx context.Context, senderAccount, id string) (*ledger.AccountTransfer, error)
	ValidateAccountTransfer(ctx context.Context, t *ledger.AccountTransfer) ([]string, error)
	SaveAccountTransfer(ctx context.Context, t *ledger.AccountTransfer) error
	CompleteAccountTransfer(ctx context.Context, t *ledger.AccountTransfer) error
	ValidateBankTransfer(ctx context.Context, t *ledger.BankTransfer) ([]string, error)
	SaveBankTransfer(ctx context.Context, t *ledger.BankTransfer) error
}

// Batch collects direct debits for the current file.
type Batch interface {
	ValidSender(account, bankCode string) bool
	Add(e dtaus.Entry) error
}

// Dispatcher routes one transaction to its handler.
type Dispatcher struct {
	ledger      Ledger
	logger      logging.Logger
	maxAttempts int
}

// New creates a Dispatcher. maxAttempts below one falls back to
// retry.DefaultAttempts.
func New(l Ledger, logger logging.Logger, maxAttempts int) *Dispatcher {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if maxAttempts < 1 {
		maxAttempts = retry.DefaultAttempts
	}
	return &Dispatcher{ledger: l, logger: logger, maxAttempts: maxAttempts}
}

// Dispatch applies tx. It returns nil on success or a single error whose
// text reads "<activity id>: <reason>". In dry-run mode everything is
// validated but nothing is saved.
func (d *Dispatcher) Dispatch(ctx context.Context, tx models.Transaction, batch Batch, dryRun bool) error {
	if tx == nil {
		return fmt.Errorf("dispatch: no transaction")
	}
	rec := tx.Source()
	log := d.logger.WithFields(
		logging.F(logging.FieldActivityID, rec.ActivityID),
		logging.F(logging.FieldKind, tx.Kind().String()),
		logging.F(logging.FieldDryRun, dryRun),
	)

	var err error
	switch t := tx.(type) {
	case models.AccountTransfer:
		err = d.accountTransfer(ctx, t, dryRun)
	case models.BankTransfer:
		err = d.bankTransfer(ctx, t, dryRun)
	case models.DirectDebit:
		err = d.directDebit(t, batch)
	case models.Unknown:
		err = importerror.Invalid(rec.ActivityID, "Transaction type not found")
	default:
		err = importerror.ForRow(rec.ActivityID, fmt.Errorf("unsupported transaction %T", tx))
	}

	if err != nil {
		log.WithError(err).Debug("Transaction rejected")
		return err
	}
	log.Debug("Transaction dispatched")
	return nil
}

// call runs a ledger operation under the retry policy.
func (d *Dispatcher) call(activityID, operation string, fn func() error) error {
	_, err := retry.Do(d.maxAttempts, func(attempt int) error {
		err := fn()
		if err != nil && importerror.IsTransient(err) {
			d.logger.WithError(err).Warn("Ledger operation failed",
				logging.F(logging.FieldActivityID, activityID),
				logging.F(logging.FieldOperation, operation),
				logging.F(logging.FieldAttempt, attempt))
		}
		return err
	})
	return importerror.ForRow(activityID, err)
}

func (d *Dispatcher) sender(ctx context.Context, rec models.Record) (*ledger.Account, error) {
	var account *ledger.Account
	err := d.call(rec.ActivityID, "find_account", func() error {
		var err error
		account, err = d.ledger.FindAccount(ctx, rec.SenderKonto)
		return err
	})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, importerror.Invalid(rec.ActivityID, "Account %s not found", rec.SenderKonto)
	}
	return account, nil
}

func (d *Dispatcher) accountTransfer(ctx context.Context, tx models.AccountTransfer, dryRun bool) error {
	rec := tx.Record
	id := rec.ActivityID

	sender, err := d.sender(ctx, rec)
	if err != nil {
		return err
	}

	linked := tx.PendingTransferID != ""
	var transfer *ledger.AccountTransfer
	if linked {
		err := d.call(id, "find_account_transfer", func() error {
			var err error
			transfer, err = d.ledger.FindAccountTransfer(ctx, sender.Number, tx.PendingTransferID)
			return err
		})
		if err != nil {
			return err
		}
		if transfer == nil {
			return importerror.Invalid(id, "AccountTransfer not found")
		}
		if transfer.State != ledger.StatePending {
			return importerror.Invalid(id, "AccountTransfer state expected '%s' but was '%s'", ledger.StatePending, transfer.State)
		}
		transfer.Subject = tx.Subject
	} else {
		date, err := dateutils.ParseEntryDate(rec.EntryDate)
		if err != nil {
			return importerror.ForRow(id, err)
		}
		transfer = &ledger.AccountTransfer{
			ActivityID:      id,
			SenderAccount:   sender.Number,
			ReceiverAccount: tx.ReceiverAccount,
			Amount:          currencyutils.ParseAmountOrZero(tx.Amount),
			Subject:         tx.Subject,
			Date:            date,
			SkipMobileTAN:   true,
		}
	}

	var msgs []string
	err = d.call(id, "validate_account_transfer", func() error {
		var err error
		msgs, err = d.ledger.ValidateAccountTransfer(ctx, transfer)
		return err
	})
	if err != nil {
		return err
	}
	if len(msgs) > 0 {
		return importerror.Invalid(id, "AccountTransfer validation error(s): %s", strings.Join(msgs, "; "))
	}
	if dryRun {
		return nil
	}

	if linked {
		return d.call(id, "complete_account_transfer", func() error {
			return d.ledger.CompleteAccountTransfer(ctx, transfer)
		})
	}
	return d.call(id, "save_account_transfer", func() error {
		return d.ledger.SaveAccountTransfer(ctx, transfer)
	})
}

func (d *Dispatcher) bankTransfer(ctx context.Context, tx models.BankTransfer, dryRun bool) error {
	rec := tx.Record
	id := rec.ActivityID

	sender, err := d.sender(ctx, rec)
	if err != nil {
		return err
	}

	transfer := &ledger.BankTransfer{
		ActivityID:       id,
		SenderAccount:    sender.Number,
		ReceiverHolder:   tx.ReceiverHolder,
		ReceiverAccount:  tx.ReceiverAccount,
		ReceiverBankCode: tx.ReceiverBankCode,
		Amount:           currencyutils.ParseAmountOrZero(tx.Amount),
		Subject:          tx.Subject,
	}

	var msgs []string
	err = d.call(id, "validate_bank_transfer", func() error {
		var err error
		msgs, err = d.ledger.ValidateBankTransfer(ctx, transfer)
		return err
	})
	if err != nil {
		return err
	}
	if len(msgs) > 0 {
		return importerror.Invalid(id, "BankTransfer validation error(s): %s", strings.Join(msgs, "; "))
	}
	if dryRun {
		return nil
	}
	return d.call(id, "save_bank_transfer", func() error {
		return d.ledger.SaveBankTransfer(ctx, transfer)
	})
}

func (d *Dispatcher) directDebit(tx models.DirectDebit, batch Batch) error {
	id := tx.Record.ActivityID
	if batch == nil {
		return importerror.ForRow(id, fmt.Errorf("no batch for direct debit"))
	}
	if !batch.ValidSender(tx.SenderAccount, tx.SenderBankCode) {
		return importerror.Invalid(id, "BLZ/Konto not valid, csv fiile not written")
	}
	amount, err := currencyutils.ParseAmount(tx.Amount)
	if err != nil {
		return importerror.Invalid(id, "AMOUNT %s is not a valid amount", tx.Amount)
	}

	entry := dtaus.Entry{
		Account:  tx.SenderAccount,
		BankCode: tx.SenderBankCode,
		Holder:   textutils.Transliterate(tx.SenderName),
		Amount:   amount.Abs(),
		Subject:  tx.Subject,
	}
	if err := batch.Add(entry); err != nil {
		return importerror.ForRow(id, err)
	}
	return nil
}

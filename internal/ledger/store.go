// Package ledger persists accounts and the transfers imported for them in a
// YAML file.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"csvimport/csv-import/internal/fileutils"
	"csvimport/csv-import/internal/importerror"
	"csvimport/csv-import/internal/logging"
	"csvimport/csv-import/internal/models"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrDuplicateAccount is returned when an account number is registered twice.
var ErrDuplicateAccount = errors.New("ledger: account already exists")

// Store is a YAML file backed ledger. With an empty path it keeps its state
// in memory only.
type Store struct {
	mu     sync.Mutex
	path   string
	logger logging.Logger
	now    func() time.Time
	data   document
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open loads the ledger at path. A missing file yields an empty ledger that
// is created on the first write.
func Open(path string, logger logging.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	s := &Store{path: path, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Ledger file not found, starting empty", logging.F(logging.FieldFile, path))
			return s, nil
		}
		return nil, fmt.Errorf("error reading ledger file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.data); err != nil {
		return nil, fmt.Errorf("error parsing ledger file: %w", err)
	}

	logger.Debug("Loaded ledger",
		logging.F(logging.FieldFile, path),
		logging.F("accounts", len(s.data.Accounts)),
		logging.F("account_transfers", len(s.data.AccountTransfers)),
		logging.F("bank_transfers", len(s.data.BankTransfers)))
	return s, nil
}

// AddAccount registers an account. An empty ID is filled with a new UUID.
func (s *Store) AddAccount(ctx context.Context, a Account) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a.Number = strings.TrimSpace(a.Number)
	if a.Number == "" {
		return Account{}, fmt.Errorf("ledger: account number is blank")
	}
	if s.findAccount(a.Number) != nil {
		return Account{}, fmt.Errorf("%w: %s", ErrDuplicateAccount, a.Number)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.data.Accounts = append(s.data.Accounts, a)
	if err := s.persist(); err != nil {
		s.data.Accounts = s.data.Accounts[:len(s.data.Accounts)-1]
		return Account{}, err
	}
	return a, nil
}

// FindAccount returns the account with the given number, or nil.
func (s *Store) FindAccount(ctx context.Context, number string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.findAccount(strings.TrimSpace(number))
	if a == nil {
		return nil, nil
	}
	found := *a
	return &found, nil
}

func (s *Store) findAccount(number string) *Account {
	for i := range s.data.Accounts {
		if s.data.Accounts[i].Number == number {
			return &s.data.Accounts[i]
		}
	}
	return nil
}

// FindAccountTransfer returns the transfer with the given ID sent from
// senderAccount, or nil.
func (s *Store) FindAccountTransfer(ctx context.Context, senderAccount, id string) (*AccountTransfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.accountTransferIndex(id)
	if i < 0 || s.data.AccountTransfers[i].SenderAccount != senderAccount {
		return nil, nil
	}
	found := s.data.AccountTransfers[i]
	return &found, nil
}

func (s *Store) accountTransferIndex(id string) int {
	id = strings.TrimSpace(id)
	for i := range s.data.AccountTransfers {
		if s.data.AccountTransfers[i].ID == id {
			return i
		}
	}
	return -1
}

// ValidateAccountTransfer returns the validation messages for t.
func (s *Store) ValidateAccountTransfer(ctx context.Context, t *AccountTransfer) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateAccountTransfer(t), nil
}

// SaveAccountTransfer stores a new transfer. Imported transfers are already
// booked and so are stored as complete unless a state is set.
func (s *Store) SaveAccountTransfer(ctx context.Context, t *AccountTransfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if msgs := s.validateAccountTransfer(t); len(msgs) > 0 {
		return fmt.Errorf("ledger: invalid account transfer: %s", strings.Join(msgs, "; "))
	}
	saved := *t
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.State == "" {
		saved.State = StateComplete
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = s.now()
	}
	s.data.AccountTransfers = append(s.data.AccountTransfers, saved)
	if err := s.persist(); err != nil {
		s.data.AccountTransfers = s.data.AccountTransfers[:len(s.data.AccountTransfers)-1]
		return err
	}
	*t = saved
	return nil
}

// CompleteAccountTransfer stores the changes made to a pending transfer and
// moves it to the complete state.
func (s *Store) CompleteAccountTransfer(ctx context.Context, t *AccountTransfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.accountTransferIndex(t.ID)
	if i < 0 {
		return fmt.Errorf("ledger: account transfer %s not found", t.ID)
	}
	previous := s.data.AccountTransfers[i]
	if previous.State != StatePending {
		return fmt.Errorf("ledger: account transfer %s is %s, not %s", t.ID, previous.State, StatePending)
	}

	updated := *t
	updated.State = StateComplete
	updated.CompletedAt = s.now()
	s.data.AccountTransfers[i] = updated
	if err := s.persist(); err != nil {
		s.data.AccountTransfers[i] = previous
		return err
	}
	*t = updated
	return nil
}

// ValidateBankTransfer returns the validation messages for t.
func (s *Store) ValidateBankTransfer(ctx context.Context, t *BankTransfer) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return validateBankTransfer(t), nil
}

// SaveBankTransfer stores a new bank transfer in the pending state.
func (s *Store) SaveBankTransfer(ctx context.Context, t *BankTransfer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if msgs := validateBankTransfer(t); len(msgs) > 0 {
		return fmt.Errorf("ledger: invalid bank transfer: %s", strings.Join(msgs, "; "))
	}
	saved := *t
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.State == "" {
		saved.State = StatePending
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = s.now()
	}
	s.data.BankTransfers = append(s.data.BankTransfers, saved)
	if err := s.persist(); err != nil {
		s.data.BankTransfers = s.data.BankTransfers[:len(s.data.BankTransfers)-1]
		return err
	}
	*t = saved
	return nil
}

// AccountTransfers returns a copy of all account transfers.
func (s *Store) AccountTransfers() []AccountTransfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AccountTransfer(nil), s.data.AccountTransfers...)
}

// BankTransfers returns a copy of all bank transfers.
func (s *Store) BankTransfers() []BankTransfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]BankTransfer(nil), s.data.BankTransfers...)
}

// persist writes the ledger file. Write failures are transient so callers
// may retry them. Must be called with s.mu held.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("error marshaling ledger: %w", err)
	}
	if err := fileutils.EnsureDirectoryExists(filepath.Dir(s.path)); err != nil {
		return importerror.Transient(err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, models.PermissionLedgerFile); err != nil {
		return importerror.Transient(fmt.Errorf("error writing ledger: %w", err))
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return importerror.Transient(fmt.Errorf("error replacing ledger: %w", err))
	}
	s.logger.Debug("Saved ledger", logging.F(logging.FieldFile, s.path))
	return nil
}

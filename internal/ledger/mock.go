package ledger

import (
	"context"
	"sync"
)

// Mock is an in-memory ledger for tests. Validation messages and save
// failures are injected through its fields.
type Mock struct {
	mu sync.Mutex

	Accounts         map[string]Account
	AccountTransfers map[string]AccountTransfer

	AccountTransferMessages []string
	BankTransferMessages    []string

	// SaveErrors are returned by successive save or complete calls until
	// the slice is exhausted.
	SaveErrors []error
	FindError  error

	SavedAccountTransfers     []AccountTransfer
	CompletedAccountTransfers []AccountTransfer
	SavedBankTransfers        []BankTransfer
	SaveCalls                 int
}

// NewMock returns a Mock knowing the given accounts.
func NewMock(accounts ...Account) *Mock {
	m := &Mock{
		Accounts:         make(map[string]Account),
		AccountTransfers: make(map[string]AccountTransfer),
	}
	for _, a := range accounts {
		m.Accounts[a.Number] = a
	}
	return m
}

// FindAccount returns the mock account with the given number.
func (m *Mock) FindAccount(_ context.Context, number string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindError != nil {
		return nil, m.FindError
	}
	a, ok := m.Accounts[number]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// FindAccountTransfer returns the mock transfer if it was sent from
// senderAccount.
func (m *Mock) FindAccountTransfer(_ context.Context, senderAccount, id string) (*AccountTransfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindError != nil {
		return nil, m.FindError
	}
	t, ok := m.AccountTransfers[id]
	if !ok || t.SenderAccount != senderAccount {
		return nil, nil
	}
	return &t, nil
}

// ValidateAccountTransfer returns AccountTransferMessages.
func (m *Mock) ValidateAccountTransfer(_ context.Context, _ *AccountTransfer) ([]string, error) {
	return m.AccountTransferMessages, nil
}

// ValidateBankTransfer returns BankTransferMessages.
func (m *Mock) ValidateBankTransfer(_ context.Context, _ *BankTransfer) ([]string, error) {
	return m.BankTransferMessages, nil
}

func (m *Mock) nextSaveError() error {
	m.SaveCalls++
	if len(m.SaveErrors) == 0 {
		return nil
	}
	err := m.SaveErrors[0]
	m.SaveErrors = m.SaveErrors[1:]
	return err
}

// SaveAccountTransfer records t.
func (m *Mock) SaveAccountTransfer(_ context.Context, t *AccountTransfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.nextSaveError(); err != nil {
		return err
	}
	m.SavedAccountTransfers = append(m.SavedAccountTransfers, *t)
	return nil
}

// CompleteAccountTransfer records t as completed.
func (m *Mock) CompleteAccountTransfer(_ context.Context, t *AccountTransfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.nextSaveError(); err != nil {
		return err
	}
	t.State = StateComplete
	m.AccountTransfers[t.ID] = *t
	m.CompletedAccountTransfers = append(m.CompletedAccountTransfers, *t)
	return nil
}

// SaveBankTransfer records t.
func (m *Mock) SaveBankTransfer(_ context.Context, t *BankTransfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.nextSaveError(); err != nil {
		return err
	}
	m.SavedBankTransfers = append(m.SavedBankTransfers, *t)
	return nil
}

package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// State is the lifecycle state of a transfer.
type State string

const (
	StatePending  State = "pending"
	StateComplete State = "complete"
)

// Account is a customer account known to the ledger.
type Account struct {
	ID       string `yaml:"id"`
	Number   string `yaml:"number"`
	BankCode string `yaml:"bank_code,omitempty"`
	Holder   string `yaml:"holder"`
}

// AccountTransfer moves money between two ledger accounts.
type AccountTransfer struct {
	ID              string          `yaml:"id"`
	ActivityID      string          `yaml:"activity_id,omitempty"`
	SenderAccount   string          `yaml:"sender_account"`
	ReceiverAccount string          `yaml:"receiver_account"`
	Amount          decimal.Decimal `yaml:"amount"`
	Subject         string          `yaml:"subject"`
	Date            time.Time       `yaml:"date,omitempty"`
	State           State           `yaml:"state"`
	SkipMobileTAN   bool            `yaml:"skip_mobile_tan,omitempty"`
	CreatedAt       time.Time       `yaml:"created_at"`
	CompletedAt     time.Time       `yaml:"completed_at,omitempty"`
}

// BankTransfer sends money from a ledger account to an external bank
// account.
type BankTransfer struct {
	ID               string          `yaml:"id"`
	ActivityID       string          `yaml:"activity_id,omitempty"`
	SenderAccount    string          `yaml:"sender_account"`
	ReceiverHolder   string          `yaml:"receiver_holder"`
	ReceiverAccount  string          `yaml:"receiver_account"`
	ReceiverBankCode string          `yaml:"receiver_bank_code"`
	Amount           decimal.Decimal `yaml:"amount"`
	Subject          string          `yaml:"subject"`
	State            State           `yaml:"state"`
	CreatedAt        time.Time       `yaml:"created_at"`
}

type document struct {
	Accounts         []Account         `yaml:"accounts"`
	AccountTransfers []AccountTransfer `yaml:"account_transfers"`
	BankTransfers    []BankTransfer    `yaml:"bank_transfers"`
}

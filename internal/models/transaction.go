package models

// Kind identifies the variant of a classified transaction.
type Kind int

const (
	KindUnknown Kind = iota
	KindAccountTransfer
	KindBankTransfer
	KindDirectDebit
)

func (k Kind) String() string {
	switch k {
	case KindAccountTransfer:
		return "AccountTransfer"
	case KindBankTransfer:
		return "BankTransfer"
	case KindDirectDebit:
		return "DirectDebit"
	default:
		return "Unknown"
	}
}

// Transaction is a classified row. The set of implementations is closed:
// AccountTransfer, BankTransfer, DirectDebit and Unknown. Their Amount holds
// the AMOUNT column as written; it is parsed when the transaction is applied,
// after the sender has been checked.
type Transaction interface {
	Kind() Kind
	Source() Record
	transaction()
}

// AccountTransfer moves money between two accounts held by the operator.
type AccountTransfer struct {
	Record          Record
	Amount          string
	Subject         string
	SenderAccount   string
	ReceiverAccount string
	// PendingTransferID links the row to an existing pending transfer.
	PendingTransferID string
}

// BankTransfer sends money from an operator account to an external bank.
type BankTransfer struct {
	Record           Record
	Amount           string
	Subject          string
	SenderAccount    string
	ReceiverHolder   string
	ReceiverAccount  string
	ReceiverBankCode string
}

// DirectDebit pulls money from an external payer into the operator's batch.
type DirectDebit struct {
	Record         Record
	Amount         string
	Subject        string
	SenderAccount  string
	SenderBankCode string
	SenderName     string
}

// Unknown is a row that matched no classification rule.
type Unknown struct {
	Record Record
}

func (AccountTransfer) Kind() Kind { return KindAccountTransfer }
func (BankTransfer) Kind() Kind    { return KindBankTransfer }
func (DirectDebit) Kind() Kind     { return KindDirectDebit }
func (Unknown) Kind() Kind         { return KindUnknown }

func (t AccountTransfer) Source() Record { return t.Record }
func (t BankTransfer) Source() Record    { return t.Record }
func (t DirectDebit) Source() Record     { return t.Record }
func (t Unknown) Source() Record         { return t.Record }

func (AccountTransfer) transaction() {}
func (BankTransfer) transaction()    {}
func (DirectDebit) transaction()     {}
func (Unknown) transaction()         {}

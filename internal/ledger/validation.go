package ledger

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	externalAccountPattern = regexp.MustCompile(`^\d{1,10}$`)
	bankCodePattern        = regexp.MustCompile(`^\d{8}$`)
)

// MaxSubjectLength bounds transfer subjects (14 lines of 27 characters).
const MaxSubjectLength = 378

func validateCommon(amountPositive bool, subject string) []string {
	var msgs []string
	if !amountPositive {
		msgs = append(msgs, "Amount must be greater than 0")
	}
	switch {
	case strings.TrimSpace(subject) == "":
		msgs = append(msgs, "Subject can't be blank")
	case len([]rune(subject)) > MaxSubjectLength:
		msgs = append(msgs, fmt.Sprintf("Subject is too long (maximum is %d characters)", MaxSubjectLength))
	}
	return msgs
}

// validateAccountTransfer must be called with s.mu held.
func (s *Store) validateAccountTransfer(t *AccountTransfer) []string {
	msgs := validateCommon(t.Amount.IsPositive(), t.Subject)

	receiver := strings.TrimSpace(t.ReceiverAccount)
	switch {
	case receiver == "":
		msgs = append(msgs, "Receiver can't be blank")
	case s.findAccount(receiver) == nil:
		msgs = append(msgs, fmt.Sprintf("Receiver account %s does not exist", receiver))
	case receiver == strings.TrimSpace(t.SenderAccount):
		msgs = append(msgs, "Receiver can't be the sender")
	}
	return msgs
}

func validateBankTransfer(t *BankTransfer) []string {
	msgs := validateCommon(t.Amount.IsPositive(), t.Subject)

	if strings.TrimSpace(t.ReceiverHolder) == "" {
		msgs = append(msgs, "Receiver holder can't be blank")
	}
	if !externalAccountPattern.MatchString(t.ReceiverAccount) {
		msgs = append(msgs, "Receiver account number is invalid")
	}
	if !bankCodePattern.MatchString(t.ReceiverBankCode) {
		msgs = append(msgs, "Receiver bank code is invalid")
	}
	return msgs
}

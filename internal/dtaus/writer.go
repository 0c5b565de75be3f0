package dtaus

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"csvimport/csv-import/internal/textutils"

	"github.com/shopspring/decimal"
)

// Record sizes of the DTAUS format.
const (
	recordSize     = 128
	cFixedLength   = 187
	extensionSize  = 29
	fieldTextWidth = 27

	// maxExtensions is the limit of extension parts per C record; at most
	// 13 of them may carry purpose text.
	maxExtensions        = 15
	maxPurposeExtensions = 13
)

// Extension part types.
const (
	extPayeeName   = "01"
	extPurpose     = "02"
	extSenderName  = "03"
	maxCentsDigits = 11
)

var umlauts = strings.NewReplacer(
	"Ä", "AE", "Ö", "OE", "Ü", "UE",
	"ä", "AE", "ö", "OE", "ü", "UE",
	"ß", "SS",
)

// Text reduces s to the DTAUS character set: upper-case letters, digits,
// space and . , & - / + * $ %. Anything else becomes a space.
func Text(s string) string {
	s = textutils.FoldDiacritics(umlauts.Replace(s))
	s = strings.ToUpper(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(" .,&-/+*$%", r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func cents(amount decimal.Decimal) (int64, error) {
	if amount.IsZero() {
		return 0, fmt.Errorf("dtaus: amount must not be zero")
	}
	shifted := amount.Abs().Shift(2)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("dtaus: amount %s has more than two decimal places", amount)
	}
	value := shifted.IntPart()
	if len(strconv.FormatInt(value, 10)) > maxCentsDigits {
		return 0, fmt.Errorf("dtaus: amount %s is too large", amount)
	}
	return value, nil
}

// alpha left-aligns text in a field of width n.
func alpha(s string, n int) string {
	s = Text(s)
	if len(s) > n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

// numeric right-aligns digits in a zero-filled field of width n.
func numeric(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[len(s)-n:]
	}
	return strings.Repeat("0", n-len(s)) + s
}

func numericInt(v int64, n int) string {
	return numeric(strconv.FormatInt(v, 10), n)
}

func spaces(n int) string {
	return strings.Repeat(" ", n)
}

// chunks splits normalized text into pieces of at most width characters.
func chunks(s string, width int) []string {
	s = strings.TrimRight(Text(s), " ")
	var out []string
	for len(s) > 0 {
		if len(s) <= width {
			out = append(out, s)
			break
		}
		out = append(out, s[:width])
		s = s[width:]
	}
	return out
}

type extension struct {
	kind string
	text string
}

// WriteTo encodes the batch as A record, one C record per entry and the E
// record with control sums.
func (b *Batch) WriteTo(w io.Writer) (int64, error) {
	if b.IsEmpty() {
		return 0, ErrEmptyBatch
	}

	bw := bufio.NewWriter(w)
	var written int64
	write := func(s string) error {
		n, err := bw.WriteString(s)
		written += int64(n)
		return err
	}

	if err := write(b.recordA()); err != nil {
		return written, err
	}

	var sumAccounts, sumBankCodes, sumCents decimal.Decimal
	for _, e := range b.entries {
		record, amount, err := b.recordC(e)
		if err != nil {
			return written, err
		}
		if err := write(record); err != nil {
			return written, err
		}
		sumAccounts = sumAccounts.Add(decimal.RequireFromString(numeric(e.Account, 10)))
		sumBankCodes = sumBankCodes.Add(decimal.RequireFromString(e.BankCode))
		sumCents = sumCents.Add(decimal.NewFromInt(amount))
	}

	if err := write(b.recordE(sumAccounts, sumBankCodes, sumCents)); err != nil {
		return written, err
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("dtaus: flush: %w", err)
	}
	return written, nil
}

func (b *Batch) recordA() string {
	var r strings.Builder
	r.WriteString("0128")
	r.WriteString("A")
	r.WriteString(string(b.kind))
	r.WriteString(numeric(b.sender.BankCode, 8))
	r.WriteString(numeric("", 8))
	r.WriteString(alpha(b.sender.Holder, fieldTextWidth))
	r.WriteString(b.created.Format("020106"))
	r.WriteString(spaces(4))
	r.WriteString(numeric(b.sender.Number, 10))
	r.WriteString(numeric("", 10))
	r.WriteString(spaces(15))
	r.WriteString(spaces(8))
	r.WriteString(spaces(24))
	r.WriteString("1")
	return r.String()
}

func (b *Batch) textKey() string {
	if b.kind == KindCredit {
		return "51000"
	}
	return "05000"
}

func (b *Batch) recordC(e Entry) (string, int64, error) {
	amount, err := cents(e.Amount)
	if err != nil {
		return "", 0, err
	}

	holder := chunks(e.Holder, fieldTextWidth)
	purpose := chunks(e.Subject, fieldTextWidth)
	sender := chunks(b.sender.Holder, fieldTextWidth)

	var exts []extension
	if len(holder) > 1 {
		exts = append(exts, extension{kind: extPayeeName, text: holder[1]})
	}
	if len(purpose) > 1 {
		extra := purpose[1:]
		if len(extra) > maxPurposeExtensions {
			extra = extra[:maxPurposeExtensions]
		}
		for _, p := range extra {
			exts = append(exts, extension{kind: extPurpose, text: p})
		}
	}
	if len(sender) > 1 {
		exts = append(exts, extension{kind: extSenderName, text: sender[1]})
	}
	if len(exts) > maxExtensions {
		exts = exts[:maxExtensions]
	}

	first := func(parts []string) string {
		if len(parts) == 0 {
			return ""
		}
		return parts[0]
	}

	var r strings.Builder
	r.WriteString(numericInt(int64(cFixedLength+extensionSize*len(exts)), 4))
	r.WriteString("C")
	r.WriteString(numeric(b.sender.BankCode, 8))
	r.WriteString(numeric(e.BankCode, 8))
	r.WriteString(numeric(e.Account, 10))
	r.WriteString(numeric("", 13))
	r.WriteString(b.textKey())
	r.WriteString(spaces(1))
	r.WriteString(numeric("", 11))
	r.WriteString(numeric(b.sender.BankCode, 8))
	r.WriteString(numeric(b.sender.Number, 10))
	r.WriteString(numericInt(amount, 11))
	r.WriteString(spaces(3))
	r.WriteString(alpha(first(holder), fieldTextWidth))
	r.WriteString(spaces(8))
	r.WriteString(alpha(first(sender), fieldTextWidth))
	r.WriteString(alpha(first(purpose), fieldTextWidth))
	r.WriteString("1")
	r.WriteString(spaces(2))
	r.WriteString(numericInt(int64(len(exts)), 2))

	// The first two extensions share the second 128 byte block with the
	// fixed part; later ones follow in blocks of four.
	for i, ext := range exts {
		if i == 2 || (i > 2 && (i-2)%4 == 0) {
			padTo(&r)
		}
		r.WriteString(ext.kind)
		r.WriteString(alpha(ext.text, fieldTextWidth))
	}
	padTo(&r)
	return r.String(), amount, nil
}

// padTo fills the record with spaces up to the next 128 byte boundary.
func padTo(r *strings.Builder) {
	if rem := r.Len() % recordSize; rem != 0 {
		r.WriteString(spaces(recordSize - rem))
	}
}

func (b *Batch) recordE(sumAccounts, sumBankCodes, sumCents decimal.Decimal) string {
	var r strings.Builder
	r.WriteString("0128")
	r.WriteString("E")
	r.WriteString(spaces(5))
	r.WriteString(numericInt(int64(len(b.entries)), 7))
	r.WriteString(numeric("", 13))
	r.WriteString(numeric(sumAccounts.String(), 17))
	r.WriteString(numeric(sumBankCodes.String(), 13))
	r.WriteString(numeric(sumCents.String(), 13))
	r.WriteString(spaces(55))
	return r.String()
}

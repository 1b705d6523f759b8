package billing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/albertcolmenero/invoicehub/apperr"
)

const invoicePrefix = "INV-"

// Scope decides which invoices share a number sequence.
type Scope string

const (
	// ScopeOwner gives every owner their own INV-000001, INV-000002, ...
	ScopeOwner Scope = "owner"
	// ScopeGlobal shares one sequence across all owners.
	ScopeGlobal Scope = "global"
)

// globalSequenceKey is the counter row used under ScopeGlobal. Owner ids are
// issued by the identity provider and never equal it.
const globalSequenceKey = "*"

// FormatInvoiceNumber renders seq as INV-NNNNNN.
func FormatInvoiceNumber(seq int64) string {
	return fmt.Sprintf("%s%06d", invoicePrefix, seq)
}

// ParseInvoiceNumber extracts the sequence from an INV-NNNNNN number. Any
// other shape is rejected.
func ParseInvoiceNumber(number string) (int64, error) {
	digits, ok := strings.CutPrefix(number, invoicePrefix)
	if !ok || digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, apperr.Newf("malformed invoice number %q", number).
			WithHintf("invoice number %q is not in INV-NNNNNN format", number).
			Mark(apperr.ErrValidation)
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, apperr.Wrap(err).
			WithHintf("invoice number %q is out of range", number).
			Mark(apperr.ErrValidation)
	}
	return seq, nil
}

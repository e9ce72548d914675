package domain

import "strings"

const (
	DocTypeError   = "error"
	DocTypeUnknown = "unknown"
	DocTypeOther   = "other"
)

type ClassificationResult struct {
	DocType string       `json:"doc_type"`
	Fields  []string     `json:"fields"`
	Outcome ParseOutcome `json:"outcome"`
}

// ClassificationError is the result returned when classification cannot run.
func ClassificationError(fields []string, reason string) ClassificationResult {
	out := make([]string, len(fields))
	copy(out, fields)
	return ClassificationResult{DocType: DocTypeError, Fields: out, Outcome: Failed(reason)}
}

// FieldCatalog maps a canonical lowercase document type to its default field list.
type FieldCatalog map[string][]string

func DefaultFieldCatalog() FieldCatalog {
	return FieldCatalog{
		"invoice":        {"Invoice #", "Date", "Total Amount", "Vendor"},
		"bank statement": {"Account Name", "Statement Date", "Closing Balance", "Account Number"},
		"claim form":     {"Claim ID", "Patient Name", "Date of Service", "Total Charges"},
		"contract":       {"Effective Date", "Party A", "Party B", "Termination Clause"},
	}
}

// Lookup returns a copy of the default fields for docType.
func (c FieldCatalog) Lookup(docType string) ([]string, bool) {
	fields, ok := c[strings.ToLower(strings.TrimSpace(docType))]
	if !ok || len(fields) == 0 {
		return nil, false
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out, true
}

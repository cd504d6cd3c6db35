package types

// BSV scheme column names
const (
	CODE     = "code"
	PHRASE   = "phrase"
	LABEL    = "label"
	SEVERITY = "severity"
)

package types

type CatalogEntry struct {
	Code     *string
	Label    string
	Severity Severity
}

func CreateCatalogEntry(columns []string, code *string, schemeMap map[string]int) *CatalogEntry {
	return &CatalogEntry{
		Code:     code,
		Label:    columns[schemeMap[LABEL]],
		Severity: SeverityUnknown,
	}
}

func (entry *CatalogEntry) Update(severity Severity, columns []string, schemeMap map[string]int) {

	if severity > entry.Severity {
		entry.Severity = severity
	}

	label := columns[schemeMap[LABEL]]
	if len(label) > 0 {
		entry.Label = label
	}
}

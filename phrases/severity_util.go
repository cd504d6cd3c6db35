package phrases

import (
	"text2phenotype.com/fsl/types"
	"strings"
)

var (
	CRITICAL = map[string]bool{
		"critical": true, "crit": true, "severe": true, "high": true, "fatal": true,
	}

	WARNING = map[string]bool{
		"warning": true, "warn": true, "moderate": true, "medium": true, "caution": true,
	}

	INFO = map[string]bool{
		"info": true, "information": true, "low": true, "minor": true, "note": true,
	}
)

func GetSeverityGroupID(raw string) types.Severity {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if _, isMatch := CRITICAL[raw]; isMatch {
		return types.SeverityCritical
	}
	if _, isMatch := WARNING[raw]; isMatch {
		return types.SeverityWarning
	}
	if _, isMatch := INFO[raw]; isMatch {
		return types.SeverityInfo
	}

	return types.SeverityUnknown
}

func GetSeverityLabel(severity types.Severity) string {
	return severity.Name()
}

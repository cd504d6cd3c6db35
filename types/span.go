package types

import (
	"text2phenotype.com/fsl/utils"
	"fmt"
)

// Span is a half-open [Begin, End) slice of document text. Text points into
// the interned string store when set.
type Span struct {
	Begin int32
	End   int32
	Text  *string
}

func (span Span) Length() int32 {
	return span.End - span.Begin
}

// GetHashCode folds the offsets and, when present, the covered text into
// one hash.
func (span Span) GetHashCode() uint64 {
	if span.Text == nil {
		return utils.HashString(fmt.Sprintf("%d_%d", span.Begin, span.End))
	}
	return utils.HashString(fmt.Sprintf("%d_%d_%s", span.Begin, span.End, *span.Text))
}

package types

import (
	"text2phenotype.com/fsl/suffix"
)

// Document is the unit flowing through the screening pipeline. Raw and
// Folded hold the normalized symbol sequences, the index fields are filled
// by the index stage for whichever variants the configurations use.
type Document struct {
	Raw         []rune
	Folded      []rune
	RawIndex    *suffix.Tree
	FoldedIndex *suffix.Tree
}

func (doc *Document) Index(matchMode string) *suffix.Tree {
	if matchMode == MatchModeFold {
		return doc.FoldedIndex
	}
	return doc.RawIndex
}

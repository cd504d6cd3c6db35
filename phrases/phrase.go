package phrases

import (
	"text2phenotype.com/fsl/types"
	"text2phenotype.com/fsl/utils"
	"encoding/json"
	"sort"
)

// Phrase is one configured phrase together with the interned codes that
// share it. The embedded span covers the phrase's own symbol sequence, so
// End doubles as the symbol count and the hash code identifies the phrase
// by text alone.
type Phrase struct {
	types.Span
	Codes   []*string
	symbols []rune
	folded  []rune
}

func (phrase *Phrase) Symbols(foldCase bool) []rune {
	if foldCase {
		return phrase.folded
	}
	return phrase.symbols
}

func (phrase *Phrase) GetCodeCount() int {
	return len(phrase.Codes)
}

// prepare fills the unexported symbol variants. Cached phrases come back
// from JSON without them, so both load paths call this.
func (phrase *Phrase) prepare() {
	phrase.symbols = []rune(*phrase.Text)
	phrase.folded = utils.FoldRunes(phrase.symbols)
}

type Iterator func() (*Phrase, bool)

type PhraseList []*Phrase

func (pl PhraseList) Iterate() Iterator {
	cursor := 0

	return func() (*Phrase, bool) {
		if cursor >= len(pl) {
			return nil, false
		}

		phrase := pl[cursor]
		cursor = cursor + 1
		return phrase, true
	}
}

func (pl PhraseList) Sort() {
	sort.Slice(pl, func(i int, j int) bool {
		return *pl[i].Text < *pl[j].Text
	})
}

// createPhraseList merges raw entries that share the same phrase text into a
// single Phrase carrying the union of their codes. The result is sorted by
// text so iteration order does not depend on map traversal.
func createPhraseList(rawPhrases []*Phrase) PhraseList {
	merged := make(map[uint64]*Phrase)
	for _, phrase := range rawPhrases {
		hash := phrase.GetHashCode()

		existing, ok := merged[hash]
		if !ok {
			merged[hash] = phrase
			continue
		}

		for _, code := range phrase.Codes {
			existing.Codes = appendCode(existing.Codes, code)
		}
	}

	list := make(PhraseList, 0, len(merged))
	for _, phrase := range merged {
		list = append(list, phrase)
	}
	list.Sort()
	return list
}

func appendCode(codes []*string, code *string) []*string {
	for _, known := range codes {
		if known == code {
			return codes
		}
	}
	return append(codes, code)
}

func (pl *PhraseList) UnmarshalJSON(data []byte) error {
	var raw []*Phrase
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	localStore := make(map[string]*string)
	getPtr := func(s string) *string {
		ptr, isOk := localStore[s]
		if !isOk {
			ptr = utils.GlobalStringStore().GetPointer(s)
			localStore[s] = ptr
		}

		return ptr
	}

	for _, phrase := range raw {
		for ci, code := range phrase.Codes {
			phrase.Codes[ci] = getPtr(*code)
		}
		phrase.prepare()
	}
	*pl = raw
	return nil
}

package types

// Match is the outcome of checking one configured phrase against a document
// index. Codes carries the interned code pointers that survived exclusion
// filtering.
type Match struct {
	Phrase *string
	Codes  []*string
	Found  bool
}

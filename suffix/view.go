package suffix

// view is a read-only window over a shared rune sequence, described by a
// begin offset and an inclusive end offset. Views never copy symbols;
// advancing or trimming a view only moves its offsets, so any number of
// views may alias the same backing slice.
type view struct {
	seq   []rune
	begin int
	end   int
}

func newView(seq []rune) view {
	return view{seq: seq, begin: 0, end: len(seq) - 1}
}

func (v view) length() int {
	return v.end - v.begin + 1
}

func (v view) at(i int) rune {
	return v.seq[v.begin+i]
}

func (v view) first() rune {
	return v.seq[v.begin]
}

// advance returns v without its first n symbols.
func (v view) advance(n int) view {
	return view{seq: v.seq, begin: v.begin + n, end: v.end}
}

// prefix returns the view of the first n symbols of v.
func (v view) prefix(n int) view {
	return view{seq: v.seq, begin: v.begin, end: v.begin + n - 1}
}

// commonPrefixLen counts the leading symbols v and other share, comparing
// position by position up to the shorter of the two lengths.
func (v view) commonPrefixLen(other view) int {
	n := v.length()
	if m := other.length(); m < n {
		n = m
	}

	c := 0
	for c < n && v.at(c) == other.at(c) {
		c++
	}
	return c
}

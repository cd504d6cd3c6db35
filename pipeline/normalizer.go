package pipeline

import (
	"text2phenotype.com/fsl/types"
	"text2phenotype.com/fsl/utils"
	"sync"
)

type Normalizer func(in <-chan string) <-chan *types.Document

// NewNormalizer builds the stage that turns request text into a document with
// normalized symbol sequences. Only the variants needed by the given match
// modes are produced.
func NewNormalizer(matchModes []string) Normalizer {
	needsRaw := false
	needsFolded := false
	for _, mode := range matchModes {
		if mode == types.MatchModeExact {
			needsRaw = true
		} else {
			needsFolded = true
		}
	}

	return func(in <-chan string) <-chan *types.Document {
		out := make(chan *types.Document)

		go func() {
			defer close(out)
			var wg sync.WaitGroup
			for text := range in {
				wg.Add(1)
				go func(text string) {
					defer wg.Done()

					doc := types.Document{}
					collapsed := utils.CollapseSpaces([]rune(text))
					if needsRaw {
						doc.Raw = collapsed
					}
					if needsFolded {
						doc.Folded = utils.FoldRunes(collapsed)
					}

					out <- &doc
				}(text)

			}

			wg.Wait()
		}()

		return out
	}
}

package pipeline

import (
	"text2phenotype.com/fsl/logger"
	"text2phenotype.com/fsl/suffix"
	"text2phenotype.com/fsl/types"
	"sync"
)

type Indexer func(in <-chan *types.Document) <-chan *types.Document

// NewIndexer builds the stage that constructs a substring index for every
// symbol variant the normalizer produced. Empty documents pass through
// without an index.
func NewIndexer() Indexer {
	fslLogger := logger.NewLogger("Document indexer")

	return func(in <-chan *types.Document) <-chan *types.Document {
		out := make(chan *types.Document)

		go func() {
			defer close(out)
			var wg sync.WaitGroup
			for doc := range in {
				wg.Add(1)
				go func(doc *types.Document) {

					defer wg.Done()
					if len(doc.Raw) > 0 {
						index, err := suffix.NewTree(doc.Raw)
						if err != nil {
							fslLogger.Error().Err(err)
						} else {
							doc.RawIndex = index
						}
					}
					if len(doc.Folded) > 0 {
						index, err := suffix.NewTree(doc.Folded)
						if err != nil {
							fslLogger.Error().Err(err)
						} else {
							doc.FoldedIndex = index
						}
					}

					out <- doc
				}(doc)

			}

			wg.Wait()
		}()

		return out
	}
}

package pipeline

import (
	"text2phenotype.com/fsl/types"
	"sync"
)

// NewDocumentChannelSplitter copies every incoming document to n output
// channels, one per screen config. Outputs are closed once the input is
// drained and every copy has been delivered.
func NewDocumentChannelSplitter(n int) func(in <-chan *types.Document) []chan *types.Document {
	return func(in <-chan *types.Document) []chan *types.Document {
		outs := make([]chan *types.Document, n)
		for i := range outs {
			outs[i] = make(chan *types.Document)
		}
		go fanOut(in, outs)
		return outs
	}
}

func fanOut(in <-chan *types.Document, outs []chan *types.Document) {
	var wg sync.WaitGroup
	for doc := range in {
		wg.Add(1)
		go func(doc *types.Document) {
			defer wg.Done()
			for _, out := range outs {
				out <- doc
			}
		}(doc)
	}
	wg.Wait()
	for _, out := range outs {
		close(out)
	}
}

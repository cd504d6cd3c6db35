package worker

import (
	"text2phenotype.com/fsl/s3client"
)

// resultStore reads chunk text and stores screen results.
type resultStore interface {
	chunkText(task *Task) ([]byte, error)
	storeResults(task *Task, result string) error
	close()
}

type resultStoreClient struct {
	s3 *s3client.Client
}

func (store *resultStoreClient) close() {
	store.s3.Close()
}

func (store *resultStoreClient) chunkText(task *Task) ([]byte, error) {
	return store.s3.Download(task.chunkTask.TextFileKey)
}

func (store *resultStoreClient) storeResults(task *Task, result string) error {
	_, err := store.s3.Upload(result, resultsKey(task))
	return err
}

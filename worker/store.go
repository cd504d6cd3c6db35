package worker

import (
	"text2phenotype.com/fsl/tasks"
	"fmt"
)

// taskStore is the slice of the task state store the worker needs. It exists
// so that the lifecycle tests can substitute a stub.
type taskStore interface {
	chunk(redisKey string) (*tasks.ChunkTask, error)
	job(task *Task) (*tasks.JobTask, error)
	document(task *Task) (*tasks.DocumentTaskCached, error)
	markStarted(task *Task) error
	markCanceled(task *Task, reasons ...string) error
	markRetriesExceeded(task *Task, maxRetries int) error
	markFailed(task *Task, cause error) error
	markComplete(task *Task) error
	close()
}

type taskStoreClient struct {
	tasks *tasks.Client
}

func (store *taskStoreClient) close() {
	store.tasks.Close()
}

func (store *taskStoreClient) chunk(redisKey string) (*tasks.ChunkTask, error) {
	return store.tasks.Chunks.Get(redisKey)
}

func (store *taskStoreClient) job(task *Task) (*tasks.JobTask, error) {
	return store.tasks.Jobs.GetCached(task.chunkTask.JobID)
}

func (store *taskStoreClient) document(task *Task) (*tasks.DocumentTaskCached, error) {
	return store.tasks.Documents.GetCached(task.chunkTask.DocID)
}

func (store *taskStoreClient) markStarted(task *Task) error {
	return store.tasks.Chunks.Update(task.redisKey, func(chunk *tasks.ChunkTask) {
		info := &chunk.TaskStatuses.FSL
		info.Status = tasks.TaskStatusStarted
		info.Attempts += 1
		info.StartedAt = nowStamp()
		info.CompletedAt = nil
	})
}

func (store *taskStoreClient) markCanceled(task *Task, reasons ...string) error {
	return store.tasks.Chunks.Update(task.redisKey, func(chunk *tasks.ChunkTask) {
		info := &chunk.TaskStatuses.FSL
		info.Status = tasks.TaskStatusCanceled
		info.Attempts += 1
		info.StartedAt = nowStamp()
		info.CompletedAt = nowStamp()
		info.ErrorMessages = append(info.ErrorMessages, reasons...)
	})
}

// markRetriesExceeded records the failure on the document task first so that
// sibling workers can see it before the chunk task flips to completed-failure.
func (store *taskStoreClient) markRetriesExceeded(task *Task, maxRetries int) error {
	err := store.tasks.Documents.Update(task.chunkTask.DocID, func(doc *tasks.DocumentTask) {
		doc.FailedTasks = append(doc.FailedTasks, "fsl")
		doc.FailedChunks[task.redisKey] = append(doc.FailedChunks[task.redisKey], "fsl")
	})
	if err != nil {
		return err
	}
	return store.tasks.Chunks.Update(task.redisKey, func(chunk *tasks.ChunkTask) {
		info := &chunk.TaskStatuses.FSL
		info.Status = tasks.TaskStatusCompletedFailure
		info.Attempts += 1
		info.StartedAt = nowStamp()
		info.CompletedAt = nowStamp()
		info.ErrorMessages = append(info.ErrorMessages, fmt.Sprintf(
			"Task has exceeded retries. (Attempts: %d, max retries: %d )",
			info.Attempts,
			maxRetries,
		))
	})
}

func (store *taskStoreClient) markFailed(task *Task, cause error) error {
	return store.tasks.Chunks.Update(task.redisKey, func(chunk *tasks.ChunkTask) {
		info := &chunk.TaskStatuses.FSL
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = nowStamp()
		info.ErrorMessages = append(info.ErrorMessages, cause.Error())
	})
}

func (store *taskStoreClient) markComplete(task *Task) error {
	return store.tasks.Chunks.Update(task.redisKey, func(chunk *tasks.ChunkTask) {
		info := &chunk.TaskStatuses.FSL
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = nowStamp()
		info.ResultsFileKey = resultsKey(task)
	})
}

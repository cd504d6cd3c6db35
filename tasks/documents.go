package tasks

import (
	"text2phenotype.com/fsl/redis"
	"text2phenotype.com/fsl/utils/maps"
)

const DocumentsDB redis.DB = 0

type DocumentTask struct {
	maps.BaseDocument
	FailedTasks  []string            `json:"failed_tasks"`
	FailedChunks map[string][]string `json:"failed_chunks"`
}

type DocumentTaskCached struct {
	maps.BaseDocument
	DocInfo     map[string]interface{} `json:"document_info"`
	FailedTasks []string               `json:"failed_tasks"`
	JobID       string                 `json:"job_id"`
	WorkType    string                 `json:"work_type"`
}

type DocumentTasks struct {
	store redis.Client
}

func (tasks DocumentTasks) Get(redisKey string) (*DocumentTask, error) {
	var task DocumentTask
	if err := tasks.store.GetPartialDocument(redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks DocumentTasks) GetCached(redisKey string) (*DocumentTaskCached, error) {
	var task DocumentTaskCached
	if err := tasks.store.GetPartialDocument(cachedPropertiesKey(redisKey), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies updateFunc under the document lock and writes back both the
// document and its cached-properties copy.
func (tasks DocumentTasks) Update(redisKey string, updateFunc func(task *DocumentTask)) (err error) {
	releaseLock, err := tasks.store.Lock(redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()

	var task DocumentTask
	if err = tasks.store.GetPartialDocument(redisKey, &task); err != nil {
		return err
	}
	if err = maps.ApplyUpdates(&task, updateFunc); err != nil {
		return err
	}
	var cached DocumentTaskCached
	if err = maps.CopyValues(&task, &cached); err != nil {
		return err
	}
	return tasks.saveBoth(redisKey, &task, &cached)
}

// saveBoth writes the document and its cached copy in parallel and waits for
// both writes before reporting the first failure.
func (tasks DocumentTasks) saveBoth(redisKey string, task *DocumentTask, cached *DocumentTaskCached) error {
	errChan := make(chan error, 2)
	go func() {
		errChan <- tasks.store.SaveDoc(redisKey, task)
	}()
	go func() {
		errChan <- tasks.store.SaveDoc(cachedPropertiesKey(redisKey), cached)
	}()
	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package worker

import (
	"fmt"
	"path"
	"time"
)

// RFC3339Micro is the timestamp layout the task state store expects.
const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func nowStamp() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}

func resultsKey(task *Task) string {
	name := fmt.Sprintf("%s.fsl_results.json", task.redisKey)
	return path.Join(
		"processed",
		"documents",
		task.chunkTask.DocID,
		"chunks",
		task.redisKey,
		name,
	)
}

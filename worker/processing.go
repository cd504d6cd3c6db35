package worker

import (
	"text2phenotype.com/fsl/pipeline"
	"text2phenotype.com/fsl/tasks"
	"text2phenotype.com/fsl/utils"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery  *amqp.Delivery
	chunkTask *tasks.ChunkTask
	message   *Message
	redisKey  string
	fslLogger *zerolog.Logger
}

// handleDelivery drives one delivery through the task lifecycle. The
// sequencer is notified whenever the task reached a decision, even when that
// decision was to skip the run; the delivery is rejected otherwise.
func (worker *Worker) handleDelivery(delivery *amqp.Delivery) {
	rejectLogger := worker.fslLogger.With().Str("message_id", delivery.MessageId).Logger()
	task, err := worker.newTask(delivery)
	if err != nil {
		worker.fslLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("tid", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.queue.reject(delivery, &rejectLogger)
		return
	}
	if err = worker.runTask(task); err != nil {
		worker.queue.reject(delivery, &rejectLogger)
		return
	}
	if err = worker.queue.notifySequencer(task, *task.message); err != nil {
		task.fslLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.queue.reject(delivery, &rejectLogger)
		return
	}
	if err = worker.queue.ack(delivery); err != nil {
		task.fslLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.fslLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) newTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	chunkTask, err := worker.store.chunk(message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk task for message, got error %w", err)
	}
	taskLogger := worker.fslLogger.With().Str("tid", message.RedisKey).Logger()
	return &Task{
		delivery:  delivery,
		chunkTask: chunkTask,
		message:   &message,
		redisKey:  message.RedisKey,
		fslLogger: &taskLogger,
	}, nil
}

func (worker *Worker) runTask(task *Task) error {
	run, err := worker.shouldRun(task)
	if err != nil {
		task.fslLogger.Err(err).Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !run {
		return nil
	}
	if err = worker.store.markStarted(task); err != nil {
		task.fslLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update TaskInfo: %w", err)
	}
	if err = worker.screenChunk(task); err != nil {
		task.fslLogger.Err(err).Msg("Got error while running pipeline")
		return worker.store.markFailed(task, err)
	}
	task.fslLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.store.markComplete(task); err != nil {
		task.fslLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

// screenChunk downloads the chunk text, runs the screen pipeline over it and
// stores the response. A panic inside the pipeline surfaces as an error.
func (worker *Worker) screenChunk(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.fslLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.chunkTask.TaskStatuses.FSL.Attempts)
	data, err := worker.results.chunkText(task)
	if err != nil {
		task.fslLogger.Err(err).Caller().Msg("Could not fetch text data from s3")
		return fmt.Errorf("failed fetch data from s3: %w", err)
	}
	request := pipeline.Request{
		Tid:  task.redisKey,
		Text: string(data),
	}
	result, ok := <-worker.ppln(request)
	if !ok {
		task.fslLogger.Error().Msg("Pipeline channel was closed before returning anything")
		return errors.New("pipeline channel was closed before returning anything")
	}
	task.fslLogger.Info().Msg("Finished pipeline, saving results to s3")
	if err = worker.results.storeResults(task, result); err != nil {
		task.fslLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldRun(task *Task) (bool, error) {
	info := task.chunkTask.TaskStatuses.FSL
	if info.Status.Complete() {
		task.fslLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	job, err := worker.store.job(task)
	if err != nil {
		task.fslLogger.Err(err).Msg("Failed to query job task for chunk task")
		return false, err
	}
	if job.UserCanceled {
		task.fslLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		return false, worker.store.markCanceled(task)
	}
	if job.StopDocumentsOnFailure {
		canceled, err := worker.cancelIfSiblingFailed(task)
		if canceled || err != nil {
			return false, err
		}
	}
	if info.Attempts >= worker.config.TaskMaxRetries {
		task.fslLogger.Info().Msg("FSL task has exceeded retries. Sending back to Sequencer.")
		return false, worker.store.markRetriesExceeded(task, worker.config.TaskMaxRetries)
	}
	return true, nil
}

// cancelIfSiblingFailed cancels the task when another worker has already
// failed the document and the job stops documents on failure.
func (worker *Worker) cancelIfSiblingFailed(task *Task) (bool, error) {
	doc, err := worker.store.document(task)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, fmt.Errorf("document task not found")
	}
	if len(doc.FailedTasks) == 0 {
		return false, nil
	}
	failed := doc.FailedTasks[0]
	task.fslLogger.Info().Msgf("Task is not required because the \"%s\" already completed failure "+
		"and document won't be processed successfully. Sending back to Sequencer.", failed)
	err = worker.store.markCanceled(
		task,
		fmt.Sprintf(
			"Task was marked as \"%s\" because of the current document has failed "+
				"in the \"%s\" worker and won't be processed successfully.",
			tasks.TaskStatusCanceled,
			failed,
		),
	)
	return true, err
}

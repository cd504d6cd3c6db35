package worker

import (
	"text2phenotype.com/fsl/logger"
	"text2phenotype.com/fsl/pipeline"
	"text2phenotype.com/fsl/rmq"
	"text2phenotype.com/fsl/s3client"
	"text2phenotype.com/fsl/tasks"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

type Config struct {
	TaskMaxRetries int `envconfig:"MDL_COMN_RETRY_TASK_COUNT_MAX" default:"3"`
}

type Worker struct {
	config    Config
	store     taskStore
	results   resultStore
	queue     broker
	fslLogger *zerolog.Logger
	ppln      pipeline.Pipeline
}

func New(ppln pipeline.Pipeline) (*Worker, error) {
	fslLogger := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fslLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := Worker{
		config:    config,
		fslLogger: &fslLogger,
		ppln:      ppln,
	}
	if err := worker.connectBroker(); err != nil {
		fslLogger.Error().Err(err).Msg("Could not create RMQ client")
		return nil, err
	}
	if err := worker.connectResultStore(); err != nil {
		fslLogger.Error().Err(err).Msg("Could not create S3 client")
		return nil, err
	}
	if err := worker.connectTaskStore(); err != nil {
		fslLogger.Error().Err(err).Msg("Could not create Redis client")
		return nil, err
	}
	return &worker, nil
}

// StartWorker consumes the FSL task queue until a broker connection cannot be
// re-established.
func (worker *Worker) StartWorker() error {
	defer worker.Close()
	for {
		select {
		case delivery, ok := <-worker.queue.deliveries():
			if ok {
				go worker.handleDelivery(&delivery)
				continue
			}
			if err := worker.recoverBroker("deliveries channel has been closed", nil); err != nil {
				return err
			}
		case rmqErr := <-worker.queue.responseErrors():
			if rmqErr == nil {
				continue
			}
			if err := worker.recoverBroker("response connection received error", rmqErr); err != nil {
				return err
			}
		case rmqErr := <-worker.queue.requestErrors():
			if rmqErr == nil {
				continue
			}
			if err := worker.recoverBroker("request connection received error", rmqErr); err != nil {
				return err
			}
		}
	}
}

func (worker *Worker) recoverBroker(reason string, cause error) error {
	worker.fslLogger.Err(cause).Msgf("%s, trying to refresh RMQ client", reason)
	if err := worker.connectBroker(); err != nil {
		return fmt.Errorf("%s and refresh failed with: %w", reason, err)
	}
	return nil
}

func (worker *Worker) Close() {
	worker.store.close()
	worker.results.close()
	worker.queue.close()
}

func (worker *Worker) connectTaskStore() error {
	worker.fslLogger.Info().Msg("Refreshing Redis client")
	if old := worker.store; old != nil {
		defer old.close()
	}
	client, err := tasks.NewClient()
	if err != nil {
		worker.fslLogger.Err(err).Msg("Failed to refresh Redis client")
		return err
	}
	worker.store = &taskStoreClient{&client}
	worker.fslLogger.Info().Msg("Refreshed Redis client")
	return nil
}

func (worker *Worker) connectBroker() error {
	worker.fslLogger.Info().Msg("Refreshing RMQ client")
	if old := worker.queue; old != nil {
		defer old.close()
	}
	client, err := rmq.NewClient()
	if err != nil {
		worker.fslLogger.Err(err).Msg("Failed to refresh RMQ client")
		return err
	}
	worker.queue = &brokerClient{client}
	worker.fslLogger.Info().Msg("Refreshed RMQ client")
	return nil
}

func (worker *Worker) connectResultStore() error {
	worker.fslLogger.Info().Msg("Refreshing S3 client")
	if old := worker.results; old != nil {
		defer old.close()
	}
	client, err := s3client.New()
	if err != nil {
		worker.fslLogger.Err(err).Msg("Failed to refresh S3 client")
		return err
	}
	worker.results = &resultStoreClient{client}
	worker.fslLogger.Info().Msg("Refreshed S3 client")
	return nil
}

package worker

import (
	"text2phenotype.com/fsl/rmq"
	"encoding/json"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// broker is the slice of the message queue the worker needs.
type broker interface {
	notifySequencer(task *Task, message Message) error
	ack(delivery *amqp.Delivery) error
	reject(delivery *amqp.Delivery, fslLogger *zerolog.Logger)
	deliveries() <-chan amqp.Delivery
	requestErrors() <-chan *amqp.Error
	responseErrors() <-chan *amqp.Error
	close()
}

type brokerClient struct {
	rmq *rmq.Client
}

func (client *brokerClient) close() {
	client.rmq.Close()
}

func (client *brokerClient) deliveries() <-chan amqp.Delivery {
	return client.rmq.Deliveries
}

func (client *brokerClient) requestErrors() <-chan *amqp.Error {
	return client.rmq.ReqChanErrors
}

func (client *brokerClient) responseErrors() <-chan *amqp.Error {
	return client.rmq.RespChanErrors
}

func (client *brokerClient) notifySequencer(task *Task, message Message) error {
	message.Sender = "fsl"
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return client.rmq.SendMessageToSequencer(amqp.Publishing{
		ContentType: task.delivery.ContentType,
		Body:        body,
	})
}

func (client *brokerClient) ack(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

// reject requeues a delivery the first time around and drops it once it has
// already been redelivered.
func (client *brokerClient) reject(delivery *amqp.Delivery, fslLogger *zerolog.Logger) {
	if delivery.Redelivered {
		fslLogger.Info().Msg("Rejecting delivery as it already has been redelivered")
		if err := delivery.Reject(false); err != nil {
			fslLogger.Err(err).Msg("Failed to reject delivery")
		}
		return
	}
	fslLogger.Info().Msg("Requeuing delivery as it has not been redelivered yet")
	if err := delivery.Reject(true); err != nil {
		fslLogger.Err(err).Msg("Failed to requeue delivery")
	}
}

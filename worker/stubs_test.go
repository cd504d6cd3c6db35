package worker

import (
	"text2phenotype.com/fsl/pipeline"
	"text2phenotype.com/fsl/tasks"
	"errors"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

var errStub = errors.New("stub failure")

// stub configures one stubbed method: a non-nil err makes the method fail,
// value overrides the zero result for lookups.
type stub struct {
	err   error
	value interface{}
}

func failing() stub {
	return stub{err: errStub}
}

type stubConfig struct {
	store       storeStubConfig
	broker      brokerStubConfig
	results     resultsStubConfig
	screenFails bool
}

type storeStubConfig struct {
	chunk               stub
	job                 stub
	document            stub
	markStarted         stub
	markCanceled        stub
	markRetriesExceeded stub
	markFailed          stub
	markComplete        stub
}

type brokerStubConfig struct {
	notifySequencer stub
	ack             stub
}

type resultsStubConfig struct {
	chunkText    stub
	storeResults stub
}

type storeCalls struct {
	chunk               bool
	job                 bool
	document            bool
	markStarted         bool
	markCanceled        bool
	markRetriesExceeded bool
	markFailed          bool
	markComplete        bool
}

type brokerCalls struct {
	notifySequencer bool
	ack             bool
	reject          bool
}

type resultsCalls struct {
	chunkText    bool
	storeResults bool
}

type screenCalls struct {
	ran bool
}

type recordedCalls struct {
	store   storeCalls
	broker  brokerCalls
	results resultsCalls
	screen  screenCalls
}

type storeStub struct {
	config storeStubConfig
	calls  storeCalls
}

func (s *storeStub) close() {}

func (s *storeStub) chunk(redisKey string) (*tasks.ChunkTask, error) {
	s.calls.chunk = true
	if s.config.chunk.err != nil {
		return nil, s.config.chunk.err
	}
	if task, ok := s.config.chunk.value.(tasks.ChunkTask); ok {
		return &task, nil
	}
	return &tasks.ChunkTask{}, nil
}

func (s *storeStub) job(task *Task) (*tasks.JobTask, error) {
	s.calls.job = true
	if s.config.job.err != nil {
		return nil, s.config.job.err
	}
	if job, ok := s.config.job.value.(tasks.JobTask); ok {
		return &job, nil
	}
	return &tasks.JobTask{}, nil
}

func (s *storeStub) document(task *Task) (*tasks.DocumentTaskCached, error) {
	s.calls.document = true
	if s.config.document.err != nil {
		return nil, s.config.document.err
	}
	if doc, ok := s.config.document.value.(tasks.DocumentTaskCached); ok {
		return &doc, nil
	}
	return &tasks.DocumentTaskCached{}, nil
}

func (s *storeStub) markStarted(task *Task) error {
	s.calls.markStarted = true
	return s.config.markStarted.err
}

func (s *storeStub) markCanceled(task *Task, reasons ...string) error {
	s.calls.markCanceled = true
	return s.config.markCanceled.err
}

func (s *storeStub) markRetriesExceeded(task *Task, maxRetries int) error {
	s.calls.markRetriesExceeded = true
	return s.config.markRetriesExceeded.err
}

func (s *storeStub) markFailed(task *Task, cause error) error {
	s.calls.markFailed = true
	return s.config.markFailed.err
}

func (s *storeStub) markComplete(task *Task) error {
	s.calls.markComplete = true
	return s.config.markComplete.err
}

type brokerStub struct {
	config brokerStubConfig
	calls  brokerCalls
}

func (s *brokerStub) close() {}

func (s *brokerStub) notifySequencer(task *Task, message Message) error {
	s.calls.notifySequencer = true
	return s.config.notifySequencer.err
}

func (s *brokerStub) ack(delivery *amqp.Delivery) error {
	s.calls.ack = true
	return s.config.ack.err
}

func (s *brokerStub) reject(delivery *amqp.Delivery, fslLogger *zerolog.Logger) {
	s.calls.reject = true
}

func (s *brokerStub) deliveries() <-chan amqp.Delivery {
	return nil
}

func (s *brokerStub) requestErrors() <-chan *amqp.Error {
	return nil
}

func (s *brokerStub) responseErrors() <-chan *amqp.Error {
	return nil
}

type resultsStub struct {
	config resultsStubConfig
	calls  resultsCalls
}

func (s *resultsStub) close() {}

func (s *resultsStub) chunkText(task *Task) ([]byte, error) {
	s.calls.chunkText = true
	if s.config.chunkText.err != nil {
		return nil, s.config.chunkText.err
	}
	if data, ok := s.config.chunkText.value.([]byte); ok {
		return data, nil
	}
	return []byte("patient denies chest pain"), nil
}

func (s *resultsStub) storeResults(task *Task, result string) error {
	s.calls.storeResults = true
	return s.config.storeResults.err
}

type screenStub struct {
	ppln  pipeline.Pipeline
	calls screenCalls
}

func newScreenStub(fails bool) *screenStub {
	s := &screenStub{}
	s.ppln = func(request pipeline.Request) <-chan string {
		s.calls.ran = true
		out := make(chan string, 1)
		if !fails {
			out <- `{"symptom_screen":{"docId":"","hits":null}}`
		}
		close(out)
		return out
	}
	return s
}

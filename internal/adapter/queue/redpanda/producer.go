// Package redpanda carries analysis jobs between the API and the worker over
// a Redpanda/Kafka topic. Delivery is at-least-once: the producer commits
// transactionally, the consumer commits offsets only after a record has been
// fully handled, and handlers tolerate redelivery.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// TopicAnalyze is the topic carrying clip analysis jobs.
const TopicAnalyze = "analyze-jobs"

// Producer wraps a transactional Kafka producer and implements domain.Queue.
type Producer struct {
	client *kgo.Client
	topic  string
	// Transactions on one client must not interleave.
	txnLock chan struct{}
}

// NewProducer constructs a Producer and ensures the analyze topic exists.
func NewProducer(brokers []string) (*Producer, error) {
	return newProducer(brokers, "interview-analyzer-producer", TopicAnalyze)
}

func newProducer(brokers []string, transactionalID, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=queue.producer: no seed brokers provided")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1_000_000),
	)
	if err != nil {
		return nil, fmt.Errorf("op=queue.producer: client: %w", err)
	}

	if err := createTopicIfNotExists(context.Background(), client, topic, 8, 1); err != nil {
		slog.Warn("analyze topic creation failed, assuming it exists",
			slog.String("topic", topic), slog.Any("error", err))
	}

	return &Producer{client: client, topic: topic, txnLock: make(chan struct{}, 1)}, nil
}

// EnqueueAnalyze publishes one analysis job. The job id keys the record so a
// job's redeliveries land on one partition.
func (p *Producer) EnqueueAnalyze(ctx domain.Context, payload domain.AnalyzeTaskPayload) (string, error) {
	select {
	case p.txnLock <- struct{}{}:
		defer func() { <-p.txnLock }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("op=queue.enqueue: marshal: %w", err)
	}

	if err := p.client.BeginTransaction(); err != nil {
		return "", fmt.Errorf("op=queue.enqueue: begin transaction: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(payload.JobID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "job_id", Value: []byte(payload.JobID)},
			{Key: "session_id", Value: []byte(payload.SessionID)},
			{Key: "kind", Value: []byte(payload.Kind)},
		},
	}

	e := kgo.AbortingFirstErrPromise(p.client)
	p.client.Produce(ctx, record, e.Promise())
	if err := e.Err(); err != nil {
		if abortErr := p.client.EndTransaction(ctx, kgo.TryAbort); abortErr != nil {
			slog.Error("abort transaction failed", slog.Any("error", abortErr))
		}
		return "", fmt.Errorf("op=queue.enqueue: produce: %w", err)
	}

	if err := p.client.EndTransaction(ctx, kgo.TryCommit); err != nil {
		return "", fmt.Errorf("op=queue.enqueue: commit transaction: %w", err)
	}

	observability.EnqueueJob("analyze")
	slog.Info("analysis job enqueued",
		slog.String("job_id", payload.JobID),
		slog.String("session_id", payload.SessionID),
		slog.String("kind", string(payload.Kind)))
	return payload.JobID, nil
}

// Ping verifies broker connectivity, for readiness probes.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close closes the producer client.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}

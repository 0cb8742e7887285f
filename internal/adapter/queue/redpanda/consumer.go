package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// Processor handles one analysis job. A returned error means the job's state
// could not be persisted and the record must be redelivered; analysis-quality
// failures are the processor's own business and complete normally.
type Processor interface {
	Process(ctx context.Context, payload domain.AnalyzeTaskPayload) error
}

// Consumer reads analysis jobs from the analyze topic and hands them to a
// Processor. Offsets are committed only after a record is handled, partitions
// are processed in order, and the group keeps per-job ordering via the record
// key.
type Consumer struct {
	client         *kgo.Client
	processor      Processor
	topic          string
	maxConcurrency int
	commit         func(ctx context.Context, records ...*kgo.Record) error
}

// NewConsumer constructs a Consumer joined to groupID.
func NewConsumer(brokers []string, groupID string, processor Processor, maxConcurrency int) (*Consumer, error) {
	return newConsumer(brokers, groupID, TopicAnalyze, processor, maxConcurrency)
}

func newConsumer(brokers []string, groupID, topic string, processor Processor, maxConcurrency int) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=queue.consumer: no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("op=queue.consumer: missing group id")
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	kotelService := kotel.NewKotel(kotel.WithTracer(
		kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider())),
	))

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.FetchIsolationLevel(kgo.ReadCommitted()),
		kgo.DisableAutoCommit(),
		kgo.WithHooks(kotelService.Hooks()...),
		kgo.DialTimeout(10*time.Second),
		kgo.SessionTimeout(30*time.Second),
		kgo.HeartbeatInterval(3*time.Second),
		kgo.RebalanceTimeout(60*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("op=queue.consumer: client: %w", err)
	}

	return &Consumer{
		client:         client,
		processor:      processor,
		topic:          topic,
		maxConcurrency: maxConcurrency,
		commit:         client.CommitRecords,
	}, nil
}

// Run polls until ctx ends. Each poll's partitions are handled concurrently,
// records within a partition in order.
func (c *Consumer) Run(ctx context.Context) error {
	slog.Info("consumer started", slog.String("topic", c.topic), slog.Int("max_concurrency", c.maxConcurrency))
	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			slog.Info("consumer stopping")
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			slog.Error("fetch error",
				slog.String("topic", topic),
				slog.Int("partition", int(partition)),
				slog.Any("error", err))
		})

		var wg sync.WaitGroup
		sem := make(chan struct{}, c.maxConcurrency)
		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			if len(p.Records) == 0 {
				return
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(records []*kgo.Record) {
				defer wg.Done()
				defer func() { <-sem }()
				c.handlePartition(ctx, records)
			}(p.Records)
		})
		wg.Wait()
	}
}

// handlePartition processes records in order and commits up to the last
// success. A mid-partition failure leaves the failed record and everything
// after it uncommitted for redelivery.
func (c *Consumer) handlePartition(ctx context.Context, records []*kgo.Record) {
	var done []*kgo.Record
	for _, record := range records {
		if err := c.handleRecord(ctx, record); err != nil {
			slog.Error("record processing failed, leaving offset uncommitted",
				slog.String("key", string(record.Key)),
				slog.Int64("offset", record.Offset),
				slog.Any("error", err))
			break
		}
		done = append(done, record)
	}
	if len(done) == 0 {
		return
	}
	if err := c.commit(ctx, done...); err != nil {
		slog.Error("offset commit failed", slog.Any("error", err))
	}
}

func (c *Consumer) handleRecord(ctx context.Context, record *kgo.Record) error {
	var payload domain.AnalyzeTaskPayload
	if err := json.Unmarshal(record.Value, &payload); err != nil {
		// Malformed records can never succeed; drop rather than wedge the
		// partition.
		slog.Error("dropping malformed record",
			slog.Int64("offset", record.Offset),
			slog.Any("error", err))
		return nil
	}

	observability.StartProcessingJob("analyze")
	start := time.Now()
	if err := c.processor.Process(ctx, payload); err != nil {
		observability.FailJob("analyze")
		return fmt.Errorf("op=queue.process: job %s: %w", payload.JobID, err)
	}
	observability.CompleteJob("analyze")
	slog.Info("analysis job processed",
		slog.String("job_id", payload.JobID),
		slog.Duration("took", time.Since(start)))
	return nil
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}

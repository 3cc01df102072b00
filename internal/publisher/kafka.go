package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Neeraj110/task-manager-app/internal/pipeline"
)

// MessageWriter is the part of *kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type BreakerConfig struct {
	MaxFailures uint32
	Timeout     time.Duration
}

// KafkaSink publishes task events keyed by task id. Writes go through a
// circuit breaker; while it is open Publish fails fast.
type KafkaSink struct {
	writer       MessageWriter
	cb           *gobreaker.CircuitBreaker
	log          *zap.SugaredLogger
	writeTimeout time.Duration
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
}

func NewKafkaSink(w MessageWriter, bc BreakerConfig, logger *zap.SugaredLogger) *KafkaSink {
	if bc.MaxFailures == 0 {
		bc.MaxFailures = 5
	}
	st := gobreaker.Settings{
		Name:        "task-events",
		MaxRequests: 1,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &KafkaSink{
		writer:       w,
		cb:           gobreaker.NewCircuitBreaker(st),
		log:          logger,
		writeTimeout: 2 * time.Second,
	}
}

func (s *KafkaSink) Publish(ctx context.Context, ev pipeline.TaskEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode task event: %w", err)
	}
	_, err = s.cb.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
		return nil, s.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(ev.TaskID),
			Value: b,
			Time:  ev.At,
		})
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// State reports the breaker state, mostly for health output.
func (s *KafkaSink) State() string { return s.cb.State().String() }

func (s *KafkaSink) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

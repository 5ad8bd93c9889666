// Worker consumes session events from Kafka and pushes them to Loki.
// Set KAFKA_BROKERS, SESSION_EVENTS_TOPIC, KAFKA_GROUP_ID, and LOKI_URL.
// Offsets are committed only after Loki accepts the event, so delivery is at least once.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"devicesession/backend/internal/config"
	"devicesession/backend/internal/telemetry/loki"
)

// pushTimeout bounds one Loki push.
const pushTimeout = 10 * time.Second

// retryDelay is the pause before retrying a message Loki rejected.
const retryDelay = 2 * time.Second

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type eventPusher interface {
	PushEventJSON(ctx context.Context, rawJSON []byte) error
}

func main() {
	cfg, err := config.Read()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	client, err := loki.NewClient(cfg.LokiURL)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    cfg.SessionEventsTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker: consuming %s (group %s) into %s", cfg.SessionEventsTopic, cfg.KafkaGroupID, cfg.LokiURL)
	consume(ctx, reader, client, retryDelay)
	log.Println("worker: stopped")
}

// consume forwards messages until ctx is done. A message that Loki rejects is retried
// after delay and is not committed until it is accepted.
func consume(ctx context.Context, reader messageReader, pusher eventPusher, delay time.Duration) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("worker: kafka fetch: %v", err)
			continue
		}
		if !forward(ctx, pusher, msg, delay) {
			return
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Printf("worker: commit offset %d: %v", msg.Offset, err)
		}
	}
}

// forward pushes msg until Loki accepts it. It reports false if ctx ended first.
func forward(ctx context.Context, pusher eventPusher, msg kafka.Message, delay time.Duration) bool {
	for {
		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		err := pusher.PushEventJSON(pushCtx, msg.Value)
		cancel()
		if err == nil {
			return true
		}
		log.Printf("worker: loki push for device %s: %v", msg.Key, err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
	}
}

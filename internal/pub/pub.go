package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gl-service/internal/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const JournalEventsTopic = "gl.journal.events"

// JournalEventPublisher emits an event after each committed journal so
// downstream consumers (reporting, audit) can react. Publishing happens
// post-commit and is best effort; a publish failure never unwinds a posting.
type JournalEventPublisher struct {
	writer *kafka.Writer
}

func NewJournalEventPublisher(brokers []string) *JournalEventPublisher {
	return &JournalEventPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        JournalEventsTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

type JournalEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"` // journal.posted
	VoucherNo  string    `json:"voucher_no"`
	SourceType string    `json:"source_type"`
	SourceID   int64     `json:"source_id,omitempty"`
	LineCount  int       `json:"line_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// JournalPosted publishes a journal.posted event keyed by voucher number.
func (p *JournalEventPublisher) JournalPosted(ctx context.Context, j *domain.Journal) error {
	event := JournalEvent{
		EventID:    uuid.NewString(),
		EventType:  "journal.posted",
		VoucherNo:  j.VoucherNo,
		SourceType: string(j.SourceType),
		SourceID:   j.SourceID,
		LineCount:  len(j.Lines),
		Timestamp:  time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(j.VoucherNo),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Printf("[JournalEvent] Published: %s for voucher=%s", event.EventType, j.VoucherNo)
	return nil
}

func (p *JournalEventPublisher) Close() error {
	return p.writer.Close()
}

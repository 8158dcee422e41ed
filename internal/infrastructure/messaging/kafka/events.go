package kafka

import (
	"context"
	"time"

	"github.com/russellmiller49/ip-assist-lite/internal/application/coding"
	"github.com/russellmiller49/ip-assist-lite/internal/application/orchestrator"
)

// Topics for ambient audit records.
const (
	TopicCodingEvents = "ip-assist.coding.events"
	TopicSafetyEvents = "ip-assist.safety.events"
)

// CodingAuditEventPayload is the wire shape of a CodingAuditRecord
// published to TopicCodingEvents for downstream billing/compliance
// consumption.
type CodingAuditEventPayload struct {
	RequestID string `json:"request_id"`
	NoteHash string `json:"note_hash"`
	PrimaryCPTs []string `json:"primary_cpts"`
	AddOnCPTs []string `json:"add_on_cpts"`
	KBVersion string `json:"kb_version"`
	Warnings []string `json:"warnings"`
	CreatedAt int64 `json:"created_at"`
}

// SafetyEventPayload is the wire shape of a SafetyEvent published to
// TopicSafetyEvents.
type SafetyEventPayload struct {
	RequestID string `json:"request_id"`
	Classification string `json:"classification"`
	Warnings []string `json:"warnings"`
	ReviewRequired bool `json:"review_required"`
	CreatedAt time.Time `json:"created_at"`
}

// CodingEventPublisher implements internal/application/coding.EventPublisher
// over the shared Producer.
type CodingEventPublisher struct {
	producer *Producer
}

// NewCodingEventPublisher wires a CodingEventPublisher against producer.
func NewCodingEventPublisher(producer *Producer) *CodingEventPublisher {
	return &CodingEventPublisher{producer: producer}
}

// PublishCodingEvent wraps record in an EventEnvelope and publishes it to
// TopicCodingEvents.
func (p *CodingEventPublisher) PublishCodingEvent(ctx context.Context, record coding.AuditRecord) error {
	envelope, err := NewEventEnvelope("coding.audit_recorded", "ip-assist", CodingAuditEventPayload{
			RequestID: record.RequestID,
			NoteHash: record.NoteHash,
			PrimaryCPTs: record.PrimaryCPTs,
			AddOnCPTs: record.AddOnCPTs,
			KBVersion: record.KBVersion,
			Warnings: record.Warnings,
			CreatedAt: record.CreatedAt,
	})
	if err != nil {
		return err
	}
	msg, err := envelope.ToMessage(TopicCodingEvents)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

// SafetyEventPublisher implements
// internal/application/orchestrator.SafetyEventPublisher over the shared
// Producer.
type SafetyEventPublisher struct {
	producer *Producer
}

// NewSafetyEventPublisher wires a SafetyEventPublisher against producer.
func NewSafetyEventPublisher(producer *Producer) *SafetyEventPublisher {
	return &SafetyEventPublisher{producer: producer}
}

// PublishSafetyEvent wraps event in an EventEnvelope and publishes it to
// TopicSafetyEvents.
func (p *SafetyEventPublisher) PublishSafetyEvent(ctx context.Context, event orchestrator.SafetyEvent) error {
	envelope, err := NewEventEnvelope("safety.turn_recorded", "ip-assist", SafetyEventPayload{
			RequestID: event.RequestID,
			Classification: string(event.Classification),
			Warnings: event.Warnings,
			ReviewRequired: event.ReviewRequired,
			CreatedAt: event.CreatedAt,
	})
	if err != nil {
		return err
	}
	msg, err := envelope.ToMessage(TopicSafetyEvents)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"tonflip/domain/events"

	log "github.com/sirupsen/logrus"
)

// NATSEventPublisher runs local handlers for an event, then publishes it to NATS
type NATSEventPublisher struct {
	natsClient    *NATSClient
	subjectMapper *EventSubjectMapper
	local         *localHandlers
}

// NewNATSEventPublisher creates a new NATS event publisher
func NewNATSEventPublisher(natsClient *NATSClient, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	return &NATSEventPublisher{
		natsClient:    natsClient,
		subjectMapper: subjectMapper,
		local:         newLocalHandlers(),
	}
}

// Publish publishes an event to NATS using the appropriate subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	ctx := context.Background()

	p.local.dispatch(ctx, event)

	subject := p.subjectMapper.MapEventToSubject(event)
	data, eventID, err := newEventEnvelope(event)
	if err != nil {
		return err
	}

	if err := p.natsClient.Publish(ctx, subject, data); err != nil {
		// Subjects outside the stream have no listener, not an error
		if strings.Contains(err.Error(), "no response from stream") {
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   eventID,
		"subject":   subject,
	}).Debug("Published event to NATS")

	return nil
}

// Subscribe registers a handler invoked in-process for every published event of eventType
func (p *NATSEventPublisher) Subscribe(eventType events.EventType, handler func(context.Context, events.Event) error) error {
	p.local.register(eventType, handler)
	return nil
}

// EnsureDomainEventStream ensures the domain event stream exists with the correct subjects
func (p *NATSEventPublisher) EnsureDomainEventStream() error {
	return p.natsClient.EnsureStream(domainStreamName, p.subjectMapper.GetAllSubjects())
}

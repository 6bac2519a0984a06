package infrastructure

import (
	"context"
	"fmt"

	"tonflip/domain/events"

	log "github.com/sirupsen/logrus"
)

// NATSEventSubscriber consumes events through durable JetStream consumers, so
// each event is handled by exactly one instance of the service.
type NATSEventSubscriber struct {
	natsClient    *NATSClient
	subjectMapper *EventSubjectMapper
}

// NewNATSEventSubscriber creates a new NATS event subscriber
func NewNATSEventSubscriber(natsClient *NATSClient, subjectMapper *EventSubjectMapper) *NATSEventSubscriber {
	return &NATSEventSubscriber{
		natsClient:    natsClient,
		subjectMapper: subjectMapper,
	}
}

// Subscribe registers a handler for a specific event type
func (s *NATSEventSubscriber) Subscribe(eventType events.EventType, handler func(context.Context, events.Event) error) error {
	subject := s.subjectMapper.MapEventTypeToSubject(eventType)

	log.WithFields(log.Fields{
		"eventType": eventType,
		"subject":   subject,
	}).Info("Registering event handler for subject")

	return s.natsClient.Subscribe(subject, func(data []byte) error {
		return s.handleMessage(subject, data, handler)
	})
}

func (s *NATSEventSubscriber) handleMessage(subject string, data []byte, handler func(context.Context, events.Event) error) error {
	event, eventID, err := decodeEnvelope(data)
	if err != nil {
		log.WithFields(log.Fields{
			"subject": subject,
			"eventId": eventID,
			"error":   err,
		}).Error("Failed to decode event envelope")
		return fmt.Errorf("failed to decode event envelope: %w", err)
	}

	if err := handler(context.Background(), event); err != nil {
		log.WithFields(log.Fields{
			"subject":   subject,
			"eventType": event.Type(),
			"eventId":   eventID,
			"error":     err,
		}).Error("Event handler failed")
		return err
	}

	log.WithFields(log.Fields{
		"subject":   subject,
		"eventType": event.Type(),
		"eventId":   eventID,
	}).Debug("Processed NATS event")
	return nil
}

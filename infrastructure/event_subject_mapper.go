package infrastructure

import (
	"fmt"

	"tonflip/domain/events"
)

var eventSubjects = map[events.EventType]string{
	events.EventTypeProfileCreated:   "tonflip.profiles.created",
	events.EventTypePointsChange:     "tonflip.points.changed",
	events.EventTypeBetSettled:       "tonflip.bets.settled",
	events.EventTypeTaskClaimed:      "tonflip.tasks.claimed",
	events.EventTypePurchaseVerified: "tonflip.purchases.verified",
	events.EventTypeReferralCredited: "tonflip.referrals.credited",
	events.EventTypeReferralSignedUp: "tonflip.referrals.signed_up",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct {
	eventTypes map[string]events.EventType
}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	eventTypes := make(map[string]events.EventType, len(eventSubjects))
	for eventType, subject := range eventSubjects {
		eventTypes[subject] = eventType
	}
	return &EventSubjectMapper{eventTypes: eventTypes}
}

// MapEventTypeToSubject returns the subject an event type is published on
func (m *EventSubjectMapper) MapEventTypeToSubject(eventType events.EventType) string {
	if subject, ok := eventSubjects[eventType]; ok {
		return subject
	}
	return fmt.Sprintf("tonflip.unknown.%s", eventType)
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	return m.MapEventTypeToSubject(event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	if eventType, ok := m.eventTypes[subject]; ok {
		return eventType
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{"tonflip.>"}
}

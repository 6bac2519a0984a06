package infrastructure

import (
	"encoding/json"
	"fmt"
	"time"

	"tonflip/domain/events"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const sourceService = "tonflip-api"

// EventEnvelope is the wire format of every event published to NATS
type EventEnvelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"sourceService"`
	Payload       json.RawMessage `json:"payload"`
}

func newEventEnvelope(event events.Event) ([]byte, string, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, envelope.EventID, nil
}

// decodeEnvelope extracts the event carried by an envelope
func decodeEnvelope(data []byte) (events.Event, string, error) {
	if !gjson.ValidBytes(data) {
		return nil, "", fmt.Errorf("event envelope is not valid JSON")
	}

	parsed := gjson.ParseBytes(data)
	eventID := parsed.Get("eventId").String()
	eventType := events.EventType(parsed.Get("eventType").String())
	payload := parsed.Get("payload")
	if !payload.Exists() {
		return nil, eventID, fmt.Errorf("event envelope %s has no payload", eventID)
	}

	event, err := decodeEvent(eventType, []byte(payload.Raw))
	if err != nil {
		return nil, eventID, err
	}
	return event, eventID, nil
}

func decodeEvent(eventType events.EventType, payload []byte) (events.Event, error) {
	switch eventType {
	case events.EventTypeProfileCreated:
		return unmarshalEvent[events.ProfileCreatedEvent](payload)
	case events.EventTypePointsChange:
		return unmarshalEvent[events.PointsChangeEvent](payload)
	case events.EventTypeBetSettled:
		return unmarshalEvent[events.BetSettledEvent](payload)
	case events.EventTypeTaskClaimed:
		return unmarshalEvent[events.TaskClaimedEvent](payload)
	case events.EventTypePurchaseVerified:
		return unmarshalEvent[events.PurchaseVerifiedEvent](payload)
	case events.EventTypeReferralCredited:
		return unmarshalEvent[events.ReferralCreditedEvent](payload)
	case events.EventTypeReferralSignedUp:
		return unmarshalEvent[events.ReferralSignedUpEvent](payload)
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}

func unmarshalEvent[T events.Event](payload []byte) (events.Event, error) {
	var event T
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %T: %w", event, err)
	}
	return event, nil
}

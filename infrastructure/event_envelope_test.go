package infrastructure

import (
	"encoding/json"
	"testing"
	"time"

	"tonflip/domain/entities"
	"tonflip/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventEnvelope_DecodesTypedEvent(t *testing.T) {
	settledAt := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)
	original := events.BetSettledEvent{
		BetID:     11,
		ProfileID: "42",
		Username:  "flipper",
		Amount:    300,
		Choice:    entities.CoinSideHeads,
		Result:    entities.CoinSideHeads,
		Outcome:   entities.BetOutcomeDoubled,
		NewPoints: 1300,
		SettledAt: settledAt,
	}

	data, eventID, err := newEventEnvelope(original)
	require.NoError(t, err)
	require.NotEmpty(t, eventID)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, "bet_settled", envelope.EventType)
	assert.Equal(t, sourceService, envelope.SourceService)

	decoded, decodedID, err := decodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, eventID, decodedID)

	bet, ok := decoded.(events.BetSettledEvent)
	require.True(t, ok, "expected value type, got %T", decoded)
	assert.Equal(t, original, bet)
}

func TestEventEnvelope_Rejects(t *testing.T) {
	_, _, err := decodeEnvelope([]byte(`not json`))
	assert.Error(t, err)

	_, _, err = decodeEnvelope([]byte(`{"eventId":"1","eventType":"bet_settled"}`))
	assert.ErrorContains(t, err, "no payload")

	_, _, err = decodeEnvelope([]byte(`{"eventId":"1","eventType":"nope","payload":{}}`))
	assert.ErrorContains(t, err, "unknown event type")
}

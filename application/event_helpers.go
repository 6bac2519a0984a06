package application

import (
	"fmt"

	"tonflip/domain/events"
)

// AssertEventType asserts an event to a concrete type, describing the mismatch on failure
func AssertEventType[T events.Event](event events.Event, expectedTypeName string) (T, error) {
	var zero T

	if e, ok := event.(T); ok {
		return e, nil
	}
	if ptr, ok := any(event).(*T); ok && ptr != nil {
		return *ptr, nil
	}

	errMsg := fmt.Sprintf("event type assertion failed: expected %s, got %T", expectedTypeName, event)
	if event != nil {
		errMsg += fmt.Sprintf(" (event.Type()=%s)", event.Type())
	}
	return zero, fmt.Errorf("%s", errMsg)
}

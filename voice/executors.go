package voice

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"voicecal-cloud/gcal"
	"voicecal-cloud/timeparse"
)

// CalendarAPI is the calendar backend collaborator. gcal.Client implements
// it; tests substitute fakes.
type CalendarAPI interface {
	ListEvents(ctx context.Context, userID, startDate, endDate string) ([]gcal.Event, error)
	CreateEvent(ctx context.Context, userID, title, startTime, endTime, description string) (*gcal.Event, error)
	UpdateEvent(ctx context.Context, userID, eventID, title, startTime, endTime string) (*gcal.Event, error)
	DeleteEvent(ctx context.Context, userID, eventID string) error
}

// AuthGate reports whether a calendar credential exists for a user.
type AuthGate interface {
	HasCredential(ctx context.Context, userID string) bool
}

// Executor runs the calendar operations behind voice function calls. Every
// operation checks the auth gate before touching the backend, and backend
// failures are folded into the Result rather than propagated.
type Executor struct {
	Calendar             CalendarAPI
	Auth                 AuthGate
	Resolver             *timeparse.Resolver
	UserID               string
	DefaultDurationHours int
}

// ListEvents handles get_calendar_events.
func (e *Executor) ListEvents(ctx context.Context, params map[string]any) Result {
	startPhrase := stringParam(params, "start_date")
	if startPhrase == "" {
		startPhrase = "today"
	}
	endPhrase := stringParam(params, "end_date")

	if !e.Auth.HasCredential(ctx, e.UserID) {
		return authRequiredResult()
	}

	startDate := e.Resolver.ResolveDate(startPhrase)
	endDate := startDate
	if endPhrase != "" {
		endDate = e.Resolver.ResolveDate(endPhrase)
	}

	events, err := e.Calendar.ListEvents(ctx, e.UserID, startDate, endDate)
	if err != nil {
		log.Printf("Error getting calendar events: %v", err)
		return errorResult(fmt.Sprintf("Failed to get calendar events: %v", err))
	}

	if len(events) == 0 {
		return Result{
			Success: true,
			Events:  []gcal.Event{},
			Message: fmt.Sprintf("You have no events scheduled for %s", startDate),
		}
	}

	entries := make([]string, 0, len(events))
	for _, event := range events {
		spoken, err := spokenEventTime(event.Start)
		if err != nil {
			log.Printf("Error getting calendar events: %v", err)
			return errorResult(fmt.Sprintf("Failed to get calendar events: %v", err))
		}
		entries = append(entries, fmt.Sprintf("%s at %s", event.Title, spoken))
	}

	return Result{
		Success: true,
		Events:  events,
		Message: fmt.Sprintf("You have %d events: %s", len(events), strings.Join(entries, ", ")),
	}
}

// CreateEvent handles create_calendar_event.
func (e *Executor) CreateEvent(ctx context.Context, params map[string]any) Result {
	title := stringParam(params, "title")
	startTime := stringParam(params, "start_time")
	endTime := stringParam(params, "end_time")
	description := stringParam(params, "description")

	if !e.Auth.HasCredential(ctx, e.UserID) {
		return authRequiredResult()
	}

	if startTime != "" && isNaturalLanguage(startTime) {
		start, end, ok := e.Resolver.ResolveInstant(startTime, e.defaultDuration())
		if ok {
			startTime = start.Format(time.RFC3339)
			if endTime == "" {
				endTime = end.Format(time.RFC3339)
			}
		}
	}

	if endTime != "" && isNaturalLanguage(endTime) {
		_, end, ok := e.Resolver.ResolveInstant(endTime, e.defaultDuration())
		if ok {
			endTime = end.Format(time.RFC3339)
		}
	}

	if startTime == "" || endTime == "" {
		return errorResult("Please specify both start and end times for the event")
	}

	log.Printf("Creating event %q from %s to %s", title, startTime, endTime)

	event, err := e.Calendar.CreateEvent(ctx, e.UserID, title, startTime, endTime, description)
	if err != nil {
		log.Printf("Error creating calendar event: %v", err)
		return errorResult(fmt.Sprintf("Failed to create calendar event: %v", err))
	}

	return Result{
		Success: true,
		Event:   event,
		Message: fmt.Sprintf("Successfully created '%s' on your calendar", title),
	}
}

// UpdateEvent handles update_calendar_event. Only supplied fields change.
func (e *Executor) UpdateEvent(ctx context.Context, params map[string]any) Result {
	eventID := stringParam(params, "event_id")
	if eventID == "" {
		return errorResult("event_id is required")
	}

	if !e.Auth.HasCredential(ctx, e.UserID) {
		return authRequiredResult()
	}

	title := stringParam(params, "title")
	startTime := stringParam(params, "start_time")
	endTime := stringParam(params, "end_time")

	event, err := e.Calendar.UpdateEvent(ctx, e.UserID, eventID, title, startTime, endTime)
	if err != nil {
		log.Printf("Error updating calendar event: %v", err)
		return errorResult(fmt.Sprintf("Failed to update calendar event: %v", err))
	}

	return Result{
		Success: true,
		Event:   event,
		Message: fmt.Sprintf("Successfully updated event %s", eventID),
	}
}

// DeleteEvent handles delete_calendar_event.
func (e *Executor) DeleteEvent(ctx context.Context, params map[string]any) Result {
	eventID := stringParam(params, "event_id")
	if eventID == "" {
		return errorResult("event_id is required")
	}

	if !e.Auth.HasCredential(ctx, e.UserID) {
		return authRequiredResult()
	}

	if err := e.Calendar.DeleteEvent(ctx, e.UserID, eventID); err != nil {
		log.Printf("Error deleting calendar event: %v", err)
		return errorResult(fmt.Sprintf("Failed to delete calendar event: %v", err))
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Successfully deleted event %s", eventID),
	}
}

func (e *Executor) defaultDuration() int {
	if e.DefaultDurationHours > 0 {
		return e.DefaultDurationHours
	}
	return 1
}

// isNaturalLanguage is true for values that are neither suffixed with a UTC
// marker nor contain an ISO date-time separator, e.g. "tomorrow at 4pm".
func isNaturalLanguage(value string) bool {
	return !strings.HasSuffix(value, "Z") && !strings.Contains(value, "T")
}

// spokenEventTime renders an event start for voice: 12-hour clock without a
// leading zero for timed events, "all day" for date-only entries.
func spokenEventTime(start string) (string, error) {
	if !strings.Contains(start, "T") {
		return "all day", nil
	}
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return "", fmt.Errorf("unparseable event start %q: %w", start, err)
	}
	return t.Format("3:04 PM"), nil
}

func stringParam(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

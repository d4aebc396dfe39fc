package gcal

import (
	"context"
	"fmt"
	"log"

	calendar "google.golang.org/api/calendar/v3"

	"voicecal-cloud/security"
)

const primaryCalendar = "primary"

// Client performs calendar operations against the primary Google Calendar of
// a user, building an authenticated service from the stored OAuth token on
// every call.
type Client struct {
	google *security.GoogleServiceClient
}

// NewClient creates a calendar client on top of the Google service client.
func NewClient(google *security.GoogleServiceClient) *Client {
	return &Client{google: google}
}

// ListEvents returns the user's events between startDate and endDate, both
// YYYY-MM-DD, inclusive of the whole end day.
func (c *Client) ListEvents(ctx context.Context, userID, startDate, endDate string) ([]Event, error) {
	service, err := c.google.GetCalendarService(ctx, userID)
	if err != nil {
		return nil, err
	}

	if endDate == "" {
		endDate = startDate
	}
	timeMin, timeMax := DayBounds(startDate, endDate)

	log.Printf("Fetching events from %s to %s for user %s", timeMin, timeMax, userID)

	resp, err := service.Events.List(primaryCalendar).
		TimeMin(timeMin).
		TimeMax(timeMax).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, normalizeEvent(item))
	}

	return events, nil
}

// CreateEvent inserts a new event with UTC start/end timestamps.
func (c *Client) CreateEvent(ctx context.Context, userID, title, startTime, endTime, description string) (*Event, error) {
	service, err := c.google.GetCalendarService(ctx, userID)
	if err != nil {
		return nil, err
	}

	body := &calendar.Event{
		Summary: title,
		Start:   &calendar.EventDateTime{DateTime: startTime, TimeZone: "UTC"},
		End:     &calendar.EventDateTime{DateTime: endTime, TimeZone: "UTC"},
	}
	if description != "" {
		body.Description = description
	}

	log.Printf("Creating event %q for user %s", title, userID)

	created, err := service.Events.Insert(primaryCalendar, body).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}

	event := normalizeEvent(created)
	return &event, nil
}

// UpdateEvent patches only the supplied fields of an existing event.
func (c *Client) UpdateEvent(ctx context.Context, userID, eventID, title, startTime, endTime string) (*Event, error) {
	service, err := c.google.GetCalendarService(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := service.Events.Get(primaryCalendar, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar event %s: %w", eventID, err)
	}

	if title != "" {
		existing.Summary = title
	}
	if startTime != "" {
		existing.Start = &calendar.EventDateTime{DateTime: startTime, TimeZone: "UTC"}
	}
	if endTime != "" {
		existing.End = &calendar.EventDateTime{DateTime: endTime, TimeZone: "UTC"}
	}

	log.Printf("Updating event %s for user %s", eventID, userID)

	updated, err := service.Events.Update(primaryCalendar, eventID, existing).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update calendar event %s: %w", eventID, err)
	}

	event := normalizeEvent(updated)
	return &event, nil
}

// DeleteEvent removes an event from the user's primary calendar.
func (c *Client) DeleteEvent(ctx context.Context, userID, eventID string) error {
	service, err := c.google.GetCalendarService(ctx, userID)
	if err != nil {
		return err
	}

	log.Printf("Deleting event %s for user %s", eventID, userID)

	if err := service.Events.Delete(primaryCalendar, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete calendar event %s: %w", eventID, err)
	}

	return nil
}

// DayBounds converts a YYYY-MM-DD range into RFC3339 query bounds covering
// the full days.
func DayBounds(startDate, endDate string) (string, string) {
	return startDate + "T00:00:00Z", endDate + "T23:59:59Z"
}

func normalizeEvent(item *calendar.Event) Event {
	title := item.Summary
	if title == "" {
		title = "No Title"
	}
	return Event{
		ID:          item.Id,
		Title:       title,
		Start:       eventDateTime(item.Start),
		End:         eventDateTime(item.End),
		Description: item.Description,
		Location:    item.Location,
		HTMLLink:    item.HtmlLink,
	}
}

// eventDateTime prefers the timed form and falls back to the all-day date.
func eventDateTime(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.DateTime != "" {
		return dt.DateTime
	}
	return dt.Date
}

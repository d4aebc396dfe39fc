package voice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicecal-cloud/gcal"
	"voicecal-cloud/timeparse"
)

// Thursday, July 3rd 2025, 10:00 UTC.
var testNow = time.Date(2025, 7, 3, 10, 0, 0, 0, time.UTC)

type fakeCalendar struct {
	events    []gcal.Event
	listErr   error
	createErr error
	updateErr error
	deleteErr error

	calls []string

	lastStartDate string
	lastEndDate   string
	lastTitle     string
	lastStart     string
	lastEnd       string
	lastEventID   string
}

func (f *fakeCalendar) ListEvents(ctx context.Context, userID, startDate, endDate string) ([]gcal.Event, error) {
	f.calls = append(f.calls, "list")
	f.lastStartDate = startDate
	f.lastEndDate = endDate
	return f.events, f.listErr
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, userID, title, startTime, endTime, description string) (*gcal.Event, error) {
	f.calls = append(f.calls, "create")
	f.lastTitle = title
	f.lastStart = startTime
	f.lastEnd = endTime
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &gcal.Event{ID: "evt-1", Title: title, Start: startTime, End: endTime}, nil
}

func (f *fakeCalendar) UpdateEvent(ctx context.Context, userID, eventID, title, startTime, endTime string) (*gcal.Event, error) {
	f.calls = append(f.calls, "update")
	f.lastEventID = eventID
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &gcal.Event{ID: eventID, Title: title, Start: startTime, End: endTime}, nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, userID, eventID string) error {
	f.calls = append(f.calls, "delete")
	f.lastEventID = eventID
	return f.deleteErr
}

type fakeAuth struct {
	authorized bool
}

func (f *fakeAuth) HasCredential(ctx context.Context, userID string) bool {
	return f.authorized
}

func newExecutor(cal *fakeCalendar, authorized bool) *Executor {
	return &Executor{
		Calendar:             cal,
		Auth:                 &fakeAuth{authorized: authorized},
		Resolver:             &timeparse.Resolver{},
		UserID:               "demo-user",
		DefaultDurationHours: 1,
	}
}

func pinNow(t *testing.T) {
	t.Helper()
	timeparse.Now = func() time.Time { return testNow }
	t.Cleanup(func() { timeparse.Now = time.Now })
}

func TestExecutors_AuthRequired(t *testing.T) {
	ctx := context.Background()
	cal := &fakeCalendar{}
	exec := newExecutor(cal, false)

	results := []Result{
		exec.ListEvents(ctx, map[string]any{}),
		exec.CreateEvent(ctx, map[string]any{"title": "x", "start_time": "2025-07-04T16:00:00Z", "end_time": "2025-07-04T17:00:00Z"}),
		exec.UpdateEvent(ctx, map[string]any{"event_id": "evt-1"}),
		exec.DeleteEvent(ctx, map[string]any{"event_id": "evt-1"}),
	}

	for _, res := range results {
		assert.False(t, res.Success)
		assert.True(t, res.AuthRequired)
		assert.Contains(t, res.Error, "authorize Google Calendar")
	}

	// The backend must never be contacted without a credential.
	assert.Empty(t, cal.calls)
}

func TestListEvents_NoEvents(t *testing.T) {
	pinNow(t)
	ctx := context.Background()
	cal := &fakeCalendar{}
	exec := newExecutor(cal, true)

	res := exec.ListEvents(ctx, map[string]any{})

	require.True(t, res.Success)
	assert.Equal(t, "You have no events scheduled for 2025-07-03", res.Message)
	assert.Equal(t, "2025-07-03", cal.lastStartDate)
	assert.Equal(t, "2025-07-03", cal.lastEndDate)
}

func TestListEvents_SpokenSummary(t *testing.T) {
	pinNow(t)
	ctx := context.Background()
	cal := &fakeCalendar{
		events: []gcal.Event{
			{ID: "1", Title: "Standup", Start: "2025-07-03T09:00:00Z", End: "2025-07-03T09:15:00Z"},
			{ID: "2", Title: "Holiday", Start: "2025-07-03", End: "2025-07-04"},
			{ID: "3", Title: "Review", Start: "2025-07-03T14:30:00Z", End: "2025-07-03T15:30:00Z"},
		},
	}
	exec := newExecutor(cal, true)

	res := exec.ListEvents(ctx, map[string]any{"start_date": "today"})

	require.True(t, res.Success)
	assert.Equal(t, "You have 3 events: Standup at 9:00 AM, Holiday at all day, Review at 2:30 PM", res.Message)
	assert.Len(t, res.Events, 3)
}

func TestListEvents_EndDateDefaultsToStart(t *testing.T) {
	pinNow(t)
	ctx := context.Background()
	cal := &fakeCalendar{}
	exec := newExecutor(cal, true)

	exec.ListEvents(ctx, map[string]any{"start_date": "tomorrow"})
	assert.Equal(t, "2025-07-04", cal.lastStartDate)
	assert.Equal(t, "2025-07-04", cal.lastEndDate)

	exec.ListEvents(ctx, map[string]any{"start_date": "tomorrow", "end_date": "monday"})
	assert.Equal(t, "2025-07-04", cal.lastStartDate)
	assert.Equal(t, "2025-07-07", cal.lastEndDate)
}

func TestListEvents_BackendFailure(t *testing.T) {
	pinNow(t)
	ctx := context.Background()
	cal := &fakeCalendar{listErr: errors.New("quota exceeded")}
	exec := newExecutor(cal, true)

	res := exec.ListEvents(ctx, map[string]any{})

	assert.False(t, res.Success)
	assert.False(t, res.AuthRequired)
	assert.Contains(t, res.Error, "Failed to get calendar events")
	assert.Contains(t, res.Error, "quota exceeded")
}

func TestCreateEvent_NaturalLanguage(t *testing.T) {
	pinNow(t)
	ctx := context.Background()
	cal := &fakeCalendar{}
	exec := newExecutor(cal, true)

	res := exec.CreateEvent(ctx, map[string]any{
		"title":      "Dentist",
		"start_time": "tomorrow at 4pm",
	})

	require.True(t, res.Success)
	assert.Equal(t, "Successfully created 'Dentist' on your calendar", res.Message)
	assert.Equal(t, "2025-07-04T16:00:00Z", cal.lastStart)
	// No end_time supplied: the resolver's derived end (one hour) is adopted.
	assert.Equal(t, "2025-07-04T17:00:00Z", cal.lastEnd)
	require.NotNil(t, res.Event)
	assert.Equal(t, "evt-1", res.Event.ID)
}

func TestCreateEvent_ISOTimestampsBypassResolver(t *testing.T) {
	pinNow(t)
	ctx := context.Background()
	cal := &fakeCalendar{}
	exec := newExecutor(cal, true)

	res := exec.CreateEvent(ctx, map[string]any{
		"title":      "Launch",
		"start_time": "2025-07-04T16:00:00Z",
		"end_time":   "2025-07-04T18:00:00Z",
	})

	require.True(t, res.Success)
	assert.Equal(t, "2025-07-04T16:00:00Z", cal.lastStart)
	assert.Equal(t, "2025-07-04T18:00:00Z", cal.lastEnd)
}

func TestCreateEvent_MissingTimesIsValidationError(t *testing.T) {
	ctx := context.Background()
	cal := &fakeCalendar{}
	exec := newExecutor(cal, true)

	res := exec.CreateEvent(ctx, map[string]any{"title": "Mystery"})

	assert.False(t, res.Success)
	assert.Equal(t, "Please specify both start and end times for the event", res.Error)
	assert.Empty(t, cal.calls)
}

func TestCreateEvent_BackendFailure(t *testing.T) {
	pinNow(t)
	ctx := context.Background()
	cal := &fakeCalendar{createErr: errors.New("calendar unavailable")}
	exec := newExecutor(cal, true)

	res := exec.CreateEvent(ctx, map[string]any{
		"title":      "Dentist",
		"start_time": "tomorrow at 4pm",
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Failed to create calendar event")
}

func TestUpdateEvent(t *testing.T) {
	ctx := context.Background()
	cal := &fakeCalendar{}
	exec := newExecutor(cal, true)

	res := exec.UpdateEvent(ctx, map[string]any{"event_id": "evt-9", "title": "Renamed"})
	require.True(t, res.Success)
	assert.Equal(t, "Successfully updated event evt-9", res.Message)
	assert.Equal(t, "evt-9", cal.lastEventID)

	res = exec.UpdateEvent(ctx, map[string]any{"title": "No ID"})
	assert.False(t, res.Success)
	assert.Equal(t, "event_id is required", res.Error)
}

func TestDeleteEvent(t *testing.T) {
	ctx := context.Background()
	cal := &fakeCalendar{}
	exec := newExecutor(cal, true)

	res := exec.DeleteEvent(ctx, map[string]any{"event_id": "evt-9"})
	require.True(t, res.Success)
	assert.Equal(t, "Successfully deleted event evt-9", res.Message)

	res = exec.DeleteEvent(ctx, map[string]any{})
	assert.False(t, res.Success)
	assert.Equal(t, "event_id is required", res.Error)
}

func TestDispatcher_UnknownFunction(t *testing.T) {
	ctx := context.Background()
	d := &Dispatcher{Exec: newExecutor(&fakeCalendar{}, true)}

	res := d.Dispatch(ctx, "order_pizza", map[string]any{})

	assert.False(t, res.Success)
	assert.Equal(t, "Unknown function: order_pizza", res.Error)
}

func TestOperationForName(t *testing.T) {
	assert.Equal(t, OpListEvents, OperationForName("get_calendar_events"))
	assert.Equal(t, OpCreateEvent, OperationForName("create_calendar_event"))
	assert.Equal(t, OpUpdateEvent, OperationForName("update_calendar_event"))
	assert.Equal(t, OpDeleteEvent, OperationForName("delete_calendar_event"))
	assert.Equal(t, OpUnknown, OperationForName(""))
	assert.Equal(t, OpUnknown, OperationForName("get_calendar_event"))
}

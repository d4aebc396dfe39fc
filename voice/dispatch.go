package voice

import (
	"context"
	"fmt"
	"log"
)

// Operation is the closed set of calendar functions the assistant can call.
type Operation int

const (
	OpUnknown Operation = iota
	OpListEvents
	OpCreateEvent
	OpUpdateEvent
	OpDeleteEvent
)

// OperationForName maps a function-call name to its operation. Every name
// outside the known set maps to OpUnknown.
func OperationForName(name string) Operation {
	switch name {
	case "get_calendar_events":
		return OpListEvents
	case "create_calendar_event":
		return OpCreateEvent
	case "update_calendar_event":
		return OpUpdateEvent
	case "delete_calendar_event":
		return OpDeleteEvent
	default:
		return OpUnknown
	}
}

// Dispatcher routes a normalized function call to its executor. It is
// stateless across invocations; unknown names and executor faults produce
// error results that flow through the same reply shaping as successes.
type Dispatcher struct {
	Exec *Executor
}

// Dispatch runs the named operation. A panicking executor is converted into
// an error result instead of taking down the request.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params map[string]any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error executing %s: %v", name, r)
			res = errorResult(fmt.Sprintf("Sorry, there was an error accessing your calendar: %v", r))
		}
	}()

	switch OperationForName(name) {
	case OpListEvents:
		return d.Exec.ListEvents(ctx, params)
	case OpCreateEvent:
		return d.Exec.CreateEvent(ctx, params)
	case OpUpdateEvent:
		return d.Exec.UpdateEvent(ctx, params)
	case OpDeleteEvent:
		return d.Exec.DeleteEvent(ctx, params)
	default:
		log.Printf("Unknown function: %s", name)
		return errorResult(fmt.Sprintf("Unknown function: %s", name))
	}
}

package visibility

// EventKind identifies a lifecycle notification.
type EventKind string

const (
	EventMount            EventKind = "mount"
	EventUnmount          EventKind = "unmount"
	EventVisibilityChange EventKind = "visibility_change"
)

// Event is delivered to hooks.
type Event struct {
	Kind    EventKind
	FieldID string
	Status  Status
	// Value is the restored value on hidden to visible transitions.
	Value any
}

// Hooks observe controller lifecycle events. Nil callbacks are skipped.
type Hooks struct {
	OnMount            func(Event)
	OnUnmount          func(Event)
	OnVisibilityChange func(Event)
}

func (c *Controller) emit(event Event) {
	for _, hooks := range c.hooks {
		var fn func(Event)
		switch event.Kind {
		case EventMount:
			fn = hooks.OnMount
		case EventUnmount:
			fn = hooks.OnUnmount
		case EventVisibilityChange:
			fn = hooks.OnVisibilityChange
		}
		if fn != nil {
			fn(event)
		}
	}
}

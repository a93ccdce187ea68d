package lock

import "time"

// Event describes one thing the controller did. Events are values; the
// controller never shares its own state with observers.
type Event struct {
	ID          string    `json:"id"`
	Time        time.Time `json:"time"`
	Outcome     Outcome   `json:"outcome"`
	State       State     `json:"state"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`

	// Set for check results.
	Score float64 `json:"score,omitempty"`
	// Samples taken by the capture, if any.
	Samples int `json:"samples,omitempty"`
	// Set while in lockout.
	LockoutRemainingMS int64 `json:"lockout_remaining_ms,omitempty"`
}

// Status is a point-in-time snapshot of the controller.
type Status struct {
	Time               time.Time `json:"time"`
	State              State     `json:"state"`
	Attempts           int       `json:"attempts"`
	MaxAttempts        int       `json:"max_attempts"`
	HasTemplate        bool      `json:"has_template"`
	TemplateLength     int       `json:"template_length"`
	LastScore          float64   `json:"last_score"`
	LockoutRemainingMS int64     `json:"lockout_remaining_ms"`
}

// Observer receives events synchronously from the host loop.
type Observer interface {
	Observe(ev Event, st Status)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event, st Status)

// Observe calls f.
func (f ObserverFunc) Observe(ev Event, st Status) { f(ev, st) }

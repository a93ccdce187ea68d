package lock

import "fmt"

// State is the resting state of the lock.
type State int

const (
	Unlocked State = iota
	Locked
	Lockout
)

var stateNames = map[State]string{
	Unlocked: "unlocked",
	Locked:   "locked",
	Lockout:  "lockout",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for k, v := range stateNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown lock state %q", string(b))
}

// Outcome is what an intent or tick did. Rejections and mismatches are
// outcomes, not errors.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeRecorded
	OutcomeRecordRejected
	OutcomeUnlocked
	OutcomeMismatch
	OutcomeLockoutEntered
	OutcomeCheckRejectedLockout
	OutcomeCheckRejectedNoTemplate
	OutcomeCheckIgnored
	OutcomeLockoutExpired
	OutcomeOverridden
)

var outcomeNames = map[Outcome]string{
	OutcomeNone:                    "none",
	OutcomeRecorded:                "recorded",
	OutcomeRecordRejected:          "record_rejected",
	OutcomeUnlocked:                "unlocked",
	OutcomeMismatch:                "mismatch",
	OutcomeLockoutEntered:          "lockout_entered",
	OutcomeCheckRejectedLockout:    "check_rejected_lockout",
	OutcomeCheckRejectedNoTemplate: "check_rejected_no_template",
	OutcomeCheckIgnored:            "check_ignored",
	OutcomeLockoutExpired:          "lockout_expired",
	OutcomeOverridden:              "overridden",
}

func (o Outcome) String() string {
	if n, ok := outcomeNames[o]; ok {
		return n
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	for k, v := range outcomeNames {
		if v == string(b) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown lock outcome %q", string(b))
}

package form

import "fmt"

// State is the lifecycle state of one form.
type State int

const (
	Idle State = iota
	Validating
	Invalid
	Submitting
	Succeeded
	Failed
)

var stateNames = [...]string{"idle", "validating", "invalid", "submitting", "succeeded", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

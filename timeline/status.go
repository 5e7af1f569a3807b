package timeline

import "fmt"

// Status is the lifecycle state of an Animation.
type Status int

const (
	Stopped Status = iota
	Paused
	Running
)

var statusNames = [...]string{"STOPPED", "PAUSED", "RUNNING"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("timeline: unknown status %q", b)
}

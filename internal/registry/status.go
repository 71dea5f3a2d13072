package registry

import "fmt"

// Status is the result enumeration of registry create operations. StatusOK is
// the single success value; every other value names a distinct failure cause.
type Status string

const (
	StatusOK        Status = "ok"
	StatusBadValue  Status = "bad_value"
	StatusNotFound  Status = "not_found"
	StatusTimedOut  Status = "timed_out"
	StatusCorrupted Status = "corrupted"
	StatusNoMemory  Status = "no_memory"
	StatusRefused   Status = "refused"
)

func (s Status) OK() bool { return s == StatusOK }

// ParseStatus validates a status string coming from fixtures or the wire.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOK, StatusBadValue, StatusNotFound, StatusTimedOut,
		StatusCorrupted, StatusNoMemory, StatusRefused:
		return Status(s), nil
	}
	return "", fmt.Errorf("registry: unknown status %q", s)
}

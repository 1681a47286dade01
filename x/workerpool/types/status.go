package types

import "fmt"

// WorkerStatus is the lifecycle state of a worker.
type WorkerStatus uint8

const (
	WorkerStatusActive WorkerStatus = iota + 1
	WorkerStatusInactive
	WorkerStatusSlashed
	WorkerStatusExiting
	WorkerStatusBanned
)

// AllWorkerStatuses lists every defined status.
func AllWorkerStatuses() []WorkerStatus {
	return []WorkerStatus{
		WorkerStatusActive,
		WorkerStatusInactive,
		WorkerStatusSlashed,
		WorkerStatusExiting,
		WorkerStatusBanned,
	}
}

func (s WorkerStatus) String() string {
	switch s {
	case WorkerStatusActive:
		return "active"
	case WorkerStatusInactive:
		return "inactive"
	case WorkerStatusSlashed:
		return "slashed"
	case WorkerStatusExiting:
		return "exiting"
	case WorkerStatusBanned:
		return "banned"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// ParseWorkerStatus converts a status name into a WorkerStatus.
func ParseWorkerStatus(s string) (WorkerStatus, error) {
	for _, st := range AllWorkerStatuses() {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown worker status %q", s)
}

// IsValid reports whether s is a defined status.
func (s WorkerStatus) IsValid() bool {
	return s >= WorkerStatusActive && s <= WorkerStatusBanned
}

// CanTransition reports whether a worker may move from s to next.
// Removal is not a status and is checked separately.
func (s WorkerStatus) CanTransition(next WorkerStatus) bool {
	switch s {
	case WorkerStatusActive:
		switch next {
		case WorkerStatusInactive, WorkerStatusSlashed, WorkerStatusBanned, WorkerStatusExiting:
			return true
		}
	case WorkerStatusInactive:
		switch next {
		case WorkerStatusActive, WorkerStatusSlashed, WorkerStatusBanned, WorkerStatusExiting:
			return true
		}
	case WorkerStatusSlashed:
		switch next {
		case WorkerStatusInactive, WorkerStatusExiting:
			return true
		}
	case WorkerStatusExiting:
		return next == WorkerStatusInactive
	case WorkerStatusBanned:
		return next == WorkerStatusInactive
	}
	return false
}

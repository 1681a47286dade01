package types

import "fmt"

// SlashReason enumerates the violations a worker can be slashed for.
type SlashReason uint8

const (
	SlashReasonMinorInfraction SlashReason = iota + 1
	SlashReasonPoorPerformance
	SlashReasonMissedHeartbeat
	SlashReasonProtocolViolation
	SlashReasonInvalidResult
	SlashReasonMaliciousBehavior
	SlashReasonFraud
)

// AllSlashReasons lists every defined reason in severity order.
func AllSlashReasons() []SlashReason {
	return []SlashReason{
		SlashReasonMinorInfraction,
		SlashReasonPoorPerformance,
		SlashReasonMissedHeartbeat,
		SlashReasonProtocolViolation,
		SlashReasonInvalidResult,
		SlashReasonMaliciousBehavior,
		SlashReasonFraud,
	}
}

func (r SlashReason) String() string {
	switch r {
	case SlashReasonMinorInfraction:
		return "minor_infraction"
	case SlashReasonPoorPerformance:
		return "poor_performance"
	case SlashReasonMissedHeartbeat:
		return "missed_heartbeat"
	case SlashReasonProtocolViolation:
		return "protocol_violation"
	case SlashReasonInvalidResult:
		return "invalid_result"
	case SlashReasonMaliciousBehavior:
		return "malicious_behavior"
	case SlashReasonFraud:
		return "fraud"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

// ParseSlashReason converts a reason name into a SlashReason.
func ParseSlashReason(s string) (SlashReason, error) {
	for _, r := range AllSlashReasons() {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, ErrInvalidSlashReason.Wrapf("unknown reason %q", s)
}

// IsValid reports whether r is a defined reason.
func (r SlashReason) IsValid() bool {
	return r >= SlashReasonMinorInfraction && r <= SlashReasonFraud
}

// SlashPercentages maps each reason to the share of stake confiscated.
type SlashPercentages struct {
	MinorInfraction   uint32 `json:"minor_infraction"`
	PoorPerformance   uint32 `json:"poor_performance"`
	MissedHeartbeat   uint32 `json:"missed_heartbeat"`
	ProtocolViolation uint32 `json:"protocol_violation"`
	InvalidResult     uint32 `json:"invalid_result"`
	MaliciousBehavior uint32 `json:"malicious_behavior"`
	Fraud             uint32 `json:"fraud"`
}

// DefaultSlashPercentages returns the default severity table.
func DefaultSlashPercentages() SlashPercentages {
	return SlashPercentages{
		MinorInfraction:   10,
		PoorPerformance:   15,
		MissedHeartbeat:   10,
		ProtocolViolation: 30,
		InvalidResult:     30,
		MaliciousBehavior: 50,
		Fraud:             100,
	}
}

// For returns the confiscation percentage for reason r.
func (p SlashPercentages) For(r SlashReason) (uint32, error) {
	switch r {
	case SlashReasonMinorInfraction:
		return p.MinorInfraction, nil
	case SlashReasonPoorPerformance:
		return p.PoorPerformance, nil
	case SlashReasonMissedHeartbeat:
		return p.MissedHeartbeat, nil
	case SlashReasonProtocolViolation:
		return p.ProtocolViolation, nil
	case SlashReasonInvalidResult:
		return p.InvalidResult, nil
	case SlashReasonMaliciousBehavior:
		return p.MaliciousBehavior, nil
	case SlashReasonFraud:
		return p.Fraud, nil
	default:
		return 0, ErrInvalidSlashReason.Wrapf("reason %d", uint8(r))
	}
}

// Validate ensures every percentage is within 1-100.
func (p SlashPercentages) Validate() error {
	for _, r := range AllSlashReasons() {
		pct, err := p.For(r)
		if err != nil {
			return err
		}
		if pct == 0 || pct > 100 {
			return fmt.Errorf("slash percentage for %s must be between 1 and 100, got %d", r, pct)
		}
	}
	return nil
}

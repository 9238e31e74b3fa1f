package queue

import (
	"time"

	"github.com/google/uuid"
)

// VisitType classifies a registration. A Normal visit can be promoted to
// Emergency by the override operation; nothing demotes an Emergency visit.
type VisitType string

const (
	VisitNormal    VisitType = "Normal"
	VisitEmergency VisitType = "Emergency"
)

func (v VisitType) Valid() bool {
	return v == VisitNormal || v == VisitEmergency
}

// Status tracks whether a patient is still in the queue. WAITING moves to
// DONE exactly once and never reverses; served rows are kept, not deleted.
type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusDone    Status = "DONE"
)

func (s Status) Valid() bool {
	return s == StatusWaiting || s == StatusDone
}

// PriorityTier is the two-tier serving priority. The numeric values are the
// legacy priority scores and define the total order: higher serves first.
type PriorityTier int

const (
	TierRoutine   PriorityTier = 1
	TierEmergency PriorityTier = 5
)

func (t PriorityTier) String() string {
	if t == TierEmergency {
		return "emergency"
	}
	return "routine"
}

// Patient maps to the patients table.
type Patient struct {
	ID               uuid.UUID `db:"patient_id" json:"patient_id"`
	TokenNumber      int       `db:"token_number" json:"token_number"`
	Name             string    `db:"name" json:"name"`
	Age              int       `db:"age" json:"age"`
	Gender           string    `db:"gender" json:"gender"`
	VisitType        VisitType `db:"visit_type" json:"visit_type"`
	EmergencyAllowed bool      `db:"emergency_allowed" json:"emergency_allowed"`
	Status           Status    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Tier returns the serving priority for the patient. An Emergency visit type
// alone is not enough: the system-wide allowance flag is the actual gate, so
// an Emergency patient whose allowance was consumed ranks as routine.
func (p *Patient) Tier() PriorityTier {
	if p.VisitType == VisitEmergency && p.EmergencyAllowed {
		return TierEmergency
	}
	return TierRoutine
}

// QueueEntry is a ranked patient together with its computed position and
// wait estimate. Entries are derived per query and never stored.
type QueueEntry struct {
	Patient          *Patient     `json:"patient"`
	Tier             PriorityTier `json:"priority_score"`
	Position         int          `json:"position"`
	EstimatedWaitMin int          `json:"estimated_wait_minutes"`
}

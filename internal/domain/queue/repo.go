package queue

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository is the record store behind the queue service.
//
// Insert assigns the id and the next token number (current max + 1, starting
// at 1) and writes the row; allocation and insert must be atomic with
// respect to concurrent inserts so no two registrations share a token.
// MarkServed applies the DONE transition and the cohort-wide allowance clear
// as one transaction; readers must never observe one without the other.
type PatientRepository interface {
	Insert(ctx context.Context, p *Patient) error
	ListByStatus(ctx context.Context, status Status) ([]*Patient, error)
	List(ctx context.Context, status *Status, limit, offset int) ([]*Patient, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByToken(ctx context.Context, token int) (*Patient, error)
	UpdateVisitType(ctx context.Context, id uuid.UUID, visitType VisitType) error
	MarkServed(ctx context.Context, id uuid.UUID) error
	SetEmergencyAllowedForWaiting(ctx context.Context, allowed bool) error
}

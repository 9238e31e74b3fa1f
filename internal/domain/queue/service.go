package queue

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Service implements the queue operations over a PatientRepository. It holds
// no state of its own; every query recomputes the ordering from the store,
// so concurrent handlers can share one instance.
type Service struct {
	repo           PatientRepository
	avgServiceMins int
}

func NewService(repo PatientRepository) *Service {
	return &Service{repo: repo, avgServiceMins: DefaultAvgServiceMinutes}
}

// SetAverageServiceMinutes overrides the per-patient consultation estimate.
// Non-positive values are ignored.
func (s *Service) SetAverageServiceMinutes(mins int) {
	if mins > 0 {
		s.avgServiceMins = mins
	}
}

// Register validates the intake fields and inserts a WAITING record. The
// store allocates the token; on success the returned patient carries it.
// A fresh Emergency registration starts with the allowance granted; everyone
// else only gains allowance through a reset.
func (s *Service) Register(ctx context.Context, name string, age int, gender string, visitType VisitType) (*Patient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if age <= 0 {
		return nil, &ValidationError{Field: "age", Reason: "must be positive"}
	}
	if strings.TrimSpace(gender) == "" {
		return nil, &ValidationError{Field: "gender", Reason: "must not be empty"}
	}
	if !visitType.Valid() {
		return nil, &ValidationError{Field: "visit_type", Reason: `must be "Normal" or "Emergency"`}
	}

	p := &Patient{
		Name:             name,
		Age:              age,
		Gender:           strings.TrimSpace(gender),
		VisitType:        visitType,
		EmergencyAllowed: visitType == VisitEmergency,
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Queue returns the current waiting queue in serving order with wait
// estimates. Read-only; no side effects.
func (s *Service) Queue(ctx context.Context) ([]QueueEntry, error) {
	waiting, err := s.repo.ListByStatus(ctx, StatusWaiting)
	if err != nil {
		return nil, err
	}
	return WithEstimates(Rank(waiting), s.avgServiceMins), nil
}

// NextPatient returns the head of the queue, or ErrQueueEmpty when nobody
// is waiting.
func (s *Service) NextPatient(ctx context.Context) (*QueueEntry, error) {
	entries, err := s.Queue(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrQueueEmpty
	}
	return &entries[0], nil
}

// EmergencyOverride promotes the patient's visit type to Emergency. The
// allowance flag keeps whatever value it had, so an override after the slot
// was consumed has no priority effect until the next reset.
func (s *Service) EmergencyOverride(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateVisitType(ctx, id, VisitEmergency)
}

// Serve marks the patient DONE and consumes the system-wide emergency slot:
// every Emergency-typed record loses its allowance in the same transaction.
func (s *Service) Serve(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkServed(ctx, id)
}

// ResetEmergencyAllowance grants the allowance to every WAITING patient.
// Idempotent. Setting the flag on Normal visits is harmless; the tier gate
// requires the Emergency visit type as well.
func (s *Service) ResetEmergencyAllowance(ctx context.Context) error {
	return s.repo.SetEmergencyAllowedForWaiting(ctx, true)
}

// LookupStatus finds the waiting entry holding the token. Only the waiting
// queue resolves: a served token and a never-issued one both come back as
// ErrTokenNotFound.
func (s *Service) LookupStatus(ctx context.Context, token int) (*QueueEntry, error) {
	p, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusWaiting {
		return nil, ErrTokenNotFound
	}
	entries, err := s.Queue(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Patient.TokenNumber == token {
			return &entries[i], nil
		}
	}
	return nil, ErrTokenNotFound
}

// GetPatient returns a single record by id for the desk detail view.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPatients returns a page of the patient roster, optionally filtered by
// status, in token order.
func (s *Service) ListPatients(ctx context.Context, status *Status, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, status, limit, offset)
}

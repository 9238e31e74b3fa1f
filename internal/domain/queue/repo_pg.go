package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opd/opd/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// tokenAllocLock serializes read-max-then-insert across concurrent
// registrations; two desks must never be handed the same token number.
const tokenAllocLock = int64(0x6f70642d746f6b)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `patient_id, token_number, name, age, gender, visit_type,
	emergency_allowed, status, created_at`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.TokenNumber, &p.Name, &p.Age, &p.Gender, &p.VisitType,
		&p.EmergencyAllowed, &p.Status, &p.CreatedAt)
	return &p, err
}

func (r *patientRepoPG) Insert(ctx context.Context, p *Patient) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		conn := r.conn(ctx)
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, tokenAllocLock); err != nil {
			return fmt.Errorf("acquire token lock: %w", err)
		}
		var next int
		if err := conn.QueryRow(ctx, `SELECT COALESCE(MAX(token_number), 0) + 1 FROM patients`).Scan(&next); err != nil {
			return fmt.Errorf("allocate token: %w", err)
		}
		p.ID = uuid.New()
		p.TokenNumber = next
		err := conn.QueryRow(ctx, `
			INSERT INTO patients (patient_id, token_number, name, age, gender, visit_type, emergency_allowed)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING status, created_at`,
			p.ID, p.TokenNumber, p.Name, p.Age, p.Gender, p.VisitType, p.EmergencyAllowed,
		).Scan(&p.Status, &p.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert patient: %w", err)
		}
		return nil
	})
}

func (r *patientRepoPG) ListByStatus(ctx context.Context, status Status) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients WHERE status = $1 ORDER BY token_number`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *patientRepoPG) List(ctx context.Context, status *Status, limit, offset int) ([]*Patient, int, error) {
	query := `SELECT ` + patientCols + ` FROM patients WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM patients WHERE 1=1`
	var args []interface{}
	idx := 1

	if status != nil {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, *status)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY token_number LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE patient_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patientRepoPG) GetByToken(ctx context.Context, token int) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE token_number = $1`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patientRepoPG) UpdateVisitType(ctx context.Context, id uuid.UUID, visitType VisitType) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET visit_type = $2 WHERE patient_id = $1`, id, visitType)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) MarkServed(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		conn := r.conn(ctx)
		tag, err := conn.Exec(ctx,
			`UPDATE patients SET status = $2 WHERE patient_id = $1 AND status = $3`,
			id, StatusDone, StatusWaiting)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var status Status
			err := conn.QueryRow(ctx, `SELECT status FROM patients WHERE patient_id = $1`, id).Scan(&status)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			return ErrAlreadyServed
		}
		// The emergency slot is system-wide: serving anyone consumes it for
		// the whole Emergency cohort until an explicit reset.
		_, err = conn.Exec(ctx,
			`UPDATE patients SET emergency_allowed = FALSE WHERE visit_type = $1`, VisitEmergency)
		return err
	})
}

func (r *patientRepoPG) SetEmergencyAllowedForWaiting(ctx context.Context, allowed bool) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET emergency_allowed = $1 WHERE status = $2`, allowed, StatusWaiting)
	return err
}

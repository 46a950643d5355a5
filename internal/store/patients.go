package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type queries struct {
	q querier
}

const patientColumns = "id, name, patient_id, birth_date, sex"

// InsertPatient persists a new patient and assigns its row ID. A name
// collision returns ErrDuplicateKey.
func (s queries) InsertPatient(ctx context.Context, p *Patient) error {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO patients (name, patient_id, birth_date, sex, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.PatientID, p.BirthDate, p.Sex, nowTimestamp(),
	)
	if err != nil {
		return classifyError(fmt.Errorf("insert patient: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("patient insert id: %w", err)
	}
	p.ID = id
	return nil
}

// FindPatientByName looks a patient up by natural key. Returns nil when absent.
func (s queries) FindPatientByName(ctx context.Context, name string) (*Patient, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+patientColumns+" FROM patients WHERE name = ?", name)
	return scanPatient(row)
}

// SearchPatientsByName resolves a DICOM wildcard pattern against patient names.
func (s queries) SearchPatientsByName(ctx context.Context, pattern string) ([]*Patient, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+patientColumns+` FROM patients WHERE name LIKE ? ESCAPE '\'`,
		likePattern(pattern))
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	defer rows.Close()
	return collectPatients(rows)
}

// ListPatients returns every patient.
func (s queries) ListPatients(ctx context.Context) ([]*Patient, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+patientColumns+" FROM patients")
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()
	return collectPatients(rows)
}

func collectPatients(rows *sql.Rows) ([]*Patient, error) {
	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

func scanPatient(scanner interface{ Scan(dest ...any) error }) (*Patient, error) {
	var p Patient
	err := scanner.Scan(&p.ID, &p.Name, &p.PatientID, &p.BirthDate, &p.Sex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return &p, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const studyColumns = "id, patient_id, study_instance_uid, study_id, description, study_date, study_time, accession_number, referring_physician"

const studyJoinColumns = `s.id, s.patient_id, s.study_instance_uid, s.study_id, s.description,
    s.study_date, s.study_time, s.accession_number, s.referring_physician,
    p.name, p.patient_id, p.birth_date, p.sex`

const studyJoin = " FROM studies s JOIN patients p ON p.id = s.patient_id"

// InsertStudy persists a new study linked to its patient row. A UID collision
// returns ErrDuplicateKey.
func (s queries) InsertStudy(ctx context.Context, st *Study) error {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO studies (
            patient_id, study_instance_uid, study_id, description,
            study_date, study_time, accession_number, referring_physician, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.PatientID, st.StudyInstanceUID, st.StudyID, st.Description,
		st.StudyDate, st.StudyTime, st.AccessionNumber, st.ReferringPhysician, nowTimestamp(),
	)
	if err != nil {
		return classifyError(fmt.Errorf("insert study: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("study insert id: %w", err)
	}
	st.ID = id
	return nil
}

// FindStudyByUID looks a study up by natural key. Returns nil when absent.
func (s queries) FindStudyByUID(ctx context.Context, uid string) (*Study, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+studyColumns+" FROM studies WHERE study_instance_uid = ?", uid)
	return scanStudy(row)
}

// StudiesForPatient returns the child collection of one patient row.
func (s queries) StudiesForPatient(ctx context.Context, patientID int64) ([]*Study, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+studyColumns+" FROM studies WHERE patient_id = ?", patientID)
	if err != nil {
		return nil, fmt.Errorf("studies for patient: %w", err)
	}
	defer rows.Close()
	return collectStudies(rows)
}

// FindStudyRowByUID resolves one study joined with its parent patient fields.
func (s queries) FindStudyRowByUID(ctx context.Context, uid string) (*StudyWithPatient, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+studyJoinColumns+studyJoin+" WHERE s.study_instance_uid = ?", uid)
	return scanStudyRow(row)
}

// SearchStudyRows resolves a DICOM wildcard pattern against study UIDs,
// returning rows joined with parent patient fields.
func (s queries) SearchStudyRows(ctx context.Context, pattern string) ([]*StudyWithPatient, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+studyJoinColumns+studyJoin+` WHERE s.study_instance_uid LIKE ? ESCAPE '\'`,
		likePattern(pattern))
	if err != nil {
		return nil, fmt.Errorf("search studies: %w", err)
	}
	defer rows.Close()
	return collectStudyRows(rows)
}

// ListStudyRows returns every study joined with parent patient fields.
func (s queries) ListStudyRows(ctx context.Context) ([]*StudyWithPatient, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+studyJoinColumns+studyJoin)
	if err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	defer rows.Close()
	return collectStudyRows(rows)
}

func collectStudies(rows *sql.Rows) ([]*Study, error) {
	var studies []*Study
	for rows.Next() {
		st, err := scanStudy(rows)
		if err != nil {
			return nil, err
		}
		studies = append(studies, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate studies: %w", err)
	}
	return studies, nil
}

func collectStudyRows(rows *sql.Rows) ([]*StudyWithPatient, error) {
	var out []*StudyWithPatient
	for rows.Next() {
		row, err := scanStudyRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate study rows: %w", err)
	}
	return out, nil
}

func scanStudy(scanner interface{ Scan(dest ...any) error }) (*Study, error) {
	var st Study
	err := scanner.Scan(
		&st.ID, &st.PatientID, &st.StudyInstanceUID, &st.StudyID, &st.Description,
		&st.StudyDate, &st.StudyTime, &st.AccessionNumber, &st.ReferringPhysician,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan study: %w", err)
	}
	return &st, nil
}

func scanStudyRow(scanner interface{ Scan(dest ...any) error }) (*StudyWithPatient, error) {
	var row StudyWithPatient
	err := scanner.Scan(
		&row.ID, &row.PatientID, &row.StudyInstanceUID, &row.StudyID, &row.Description,
		&row.StudyDate, &row.StudyTime, &row.AccessionNumber, &row.ReferringPhysician,
		&row.PatientName, &row.PatientIDValue, &row.PatientBirthDate, &row.PatientSex,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan study row: %w", err)
	}
	return &row, nil
}

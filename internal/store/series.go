package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const seriesColumns = "id, study_id, series_instance_uid, modality, series_number, description, body_part"

const seriesJoinColumns = `se.id, se.study_id, se.series_instance_uid, se.modality,
    se.series_number, se.description, se.body_part, st.study_instance_uid`

const seriesJoin = " FROM series se JOIN studies st ON st.id = se.study_id"

// InsertSeries persists a new series linked to its study row. A UID collision
// returns ErrDuplicateKey.
func (s queries) InsertSeries(ctx context.Context, se *Series) error {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO series (
            study_id, series_instance_uid, modality, series_number, description, body_part, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		se.StudyID, se.SeriesInstanceUID, se.Modality, se.SeriesNumber, se.Description, se.BodyPart, nowTimestamp(),
	)
	if err != nil {
		return classifyError(fmt.Errorf("insert series: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("series insert id: %w", err)
	}
	se.ID = id
	return nil
}

// FindSeriesByUID looks a series up by natural key. Returns nil when absent.
func (s queries) FindSeriesByUID(ctx context.Context, uid string) (*Series, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+seriesColumns+" FROM series WHERE series_instance_uid = ?", uid)
	return scanSeries(row)
}

// SeriesForStudy returns the child collection of one study row.
func (s queries) SeriesForStudy(ctx context.Context, studyID int64) ([]*Series, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+seriesColumns+" FROM series WHERE study_id = ?", studyID)
	if err != nil {
		return nil, fmt.Errorf("series for study: %w", err)
	}
	defer rows.Close()
	return collectSeries(rows)
}

// FindSeriesRowByUID resolves one series joined with the owning study's UID.
func (s queries) FindSeriesRowByUID(ctx context.Context, uid string) (*SeriesWithStudy, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+seriesJoinColumns+seriesJoin+" WHERE se.series_instance_uid = ?", uid)
	return scanSeriesRow(row)
}

// SearchSeriesRows resolves a DICOM wildcard pattern against series UIDs.
func (s queries) SearchSeriesRows(ctx context.Context, pattern string) ([]*SeriesWithStudy, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+seriesJoinColumns+seriesJoin+` WHERE se.series_instance_uid LIKE ? ESCAPE '\'`,
		likePattern(pattern))
	if err != nil {
		return nil, fmt.Errorf("search series: %w", err)
	}
	defer rows.Close()
	return collectSeriesRows(rows)
}

// ListSeriesRows returns every series joined with the owning study's UID.
func (s queries) ListSeriesRows(ctx context.Context) ([]*SeriesWithStudy, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+seriesJoinColumns+seriesJoin)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()
	return collectSeriesRows(rows)
}

func collectSeries(rows *sql.Rows) ([]*Series, error) {
	var out []*Series
	for rows.Next() {
		se, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return out, nil
}

func collectSeriesRows(rows *sql.Rows) ([]*SeriesWithStudy, error) {
	var out []*SeriesWithStudy
	for rows.Next() {
		row, err := scanSeriesRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series rows: %w", err)
	}
	return out, nil
}

func scanSeries(scanner interface{ Scan(dest ...any) error }) (*Series, error) {
	var se Series
	err := scanner.Scan(
		&se.ID, &se.StudyID, &se.SeriesInstanceUID, &se.Modality,
		&se.SeriesNumber, &se.Description, &se.BodyPart,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan series: %w", err)
	}
	return &se, nil
}

func scanSeriesRow(scanner interface{ Scan(dest ...any) error }) (*SeriesWithStudy, error) {
	var row SeriesWithStudy
	err := scanner.Scan(
		&row.ID, &row.StudyID, &row.SeriesInstanceUID, &row.Modality,
		&row.SeriesNumber, &row.Description, &row.BodyPart, &row.StudyInstanceUID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan series row: %w", err)
	}
	return &row, nil
}

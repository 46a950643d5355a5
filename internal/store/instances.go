package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const instanceColumns = "id, series_id, sop_instance_uid, instance_number, storage_path"

const instanceJoinColumns = `i.id, i.series_id, i.sop_instance_uid, i.instance_number,
    i.storage_path, se.series_instance_uid`

const instanceJoin = " FROM instances i JOIN series se ON se.id = i.series_id"

// InsertInstance persists a new instance linked to its series row. A SOP UID
// collision returns ErrDuplicateKey.
func (s queries) InsertInstance(ctx context.Context, in *Instance) error {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO instances (
            series_id, sop_instance_uid, instance_number, storage_path, created_at
        ) VALUES (?, ?, ?, ?, ?)`,
		in.SeriesID, in.SOPInstanceUID, in.InstanceNumber, in.StoragePath, nowTimestamp(),
	)
	if err != nil {
		return classifyError(fmt.Errorf("insert instance: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("instance insert id: %w", err)
	}
	in.ID = id
	return nil
}

// FindInstanceByUID looks an instance up by natural key. Returns nil when absent.
func (s queries) FindInstanceByUID(ctx context.Context, uid string) (*Instance, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+instanceColumns+" FROM instances WHERE sop_instance_uid = ?", uid)
	return scanInstance(row)
}

// InstancesForSeries returns the child collection of one series row.
func (s queries) InstancesForSeries(ctx context.Context, seriesID int64) ([]*Instance, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+instanceColumns+" FROM instances WHERE series_id = ?", seriesID)
	if err != nil {
		return nil, fmt.Errorf("instances for series: %w", err)
	}
	defer rows.Close()
	return collectInstances(rows)
}

// FindInstanceRowByUID resolves one instance joined with the owning series' UID.
func (s queries) FindInstanceRowByUID(ctx context.Context, uid string) (*InstanceWithSeries, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+instanceJoinColumns+instanceJoin+" WHERE i.sop_instance_uid = ?", uid)
	return scanInstanceRow(row)
}

// SearchInstanceRows resolves a DICOM wildcard pattern against SOP instance UIDs.
func (s queries) SearchInstanceRows(ctx context.Context, pattern string) ([]*InstanceWithSeries, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+instanceJoinColumns+instanceJoin+` WHERE i.sop_instance_uid LIKE ? ESCAPE '\'`,
		likePattern(pattern))
	if err != nil {
		return nil, fmt.Errorf("search instances: %w", err)
	}
	defer rows.Close()
	return collectInstanceRows(rows)
}

// ListInstanceRows returns every instance joined with the owning series' UID.
func (s queries) ListInstanceRows(ctx context.Context) ([]*InstanceWithSeries, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+instanceJoinColumns+instanceJoin)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()
	return collectInstanceRows(rows)
}

// Counts reports the hierarchy cardinalities.
func (s queries) Counts(ctx context.Context) (Counts, error) {
	var counts Counts
	for _, c := range []struct {
		table string
		dest  *int64
	}{
		{"patients", &counts.Patients},
		{"studies", &counts.Studies},
		{"series", &counts.Series},
		{"instances", &counts.Instances},
	} {
		if err := s.q.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+c.table).Scan(c.dest); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return counts, nil
}

func collectInstances(rows *sql.Rows) ([]*Instance, error) {
	var out []*Instance
	for rows.Next() {
		in, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return out, nil
}

func collectInstanceRows(rows *sql.Rows) ([]*InstanceWithSeries, error) {
	var out []*InstanceWithSeries
	for rows.Next() {
		row, err := scanInstanceRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instance rows: %w", err)
	}
	return out, nil
}

func scanInstance(scanner interface{ Scan(dest ...any) error }) (*Instance, error) {
	var in Instance
	err := scanner.Scan(&in.ID, &in.SeriesID, &in.SOPInstanceUID, &in.InstanceNumber, &in.StoragePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan instance: %w", err)
	}
	return &in, nil
}

func scanInstanceRow(scanner interface{ Scan(dest ...any) error }) (*InstanceWithSeries, error) {
	var row InstanceWithSeries
	err := scanner.Scan(
		&row.ID, &row.SeriesID, &row.SOPInstanceUID, &row.InstanceNumber,
		&row.StoragePath, &row.SeriesInstanceUID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan instance row: %w", err)
	}
	return &row, nil
}

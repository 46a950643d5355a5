package query

import (
	"context"
	"fmt"

	"mupacs/internal/store"
)

// Matcher resolves a query's search keys into the candidate entities at one
// hierarchy level. It only reads; the query path never mutates the store.
type Matcher struct {
	store *store.Store
}

// NewMatcher constructs a matcher over the given store.
func NewMatcher(st *store.Store) *Matcher {
	return &Matcher{store: st}
}

// MatchPatients resolves the patient-level candidates for keys.
func (m *Matcher) MatchPatients(ctx context.Context, keys Keys) ([]Keys, error) {
	var patients []*store.Patient
	name := keys.Get(FieldPatientName)
	switch {
	case name == "":
		var err error
		patients, err = m.store.ListPatients(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve patients: %w", err)
		}
	case hasWildcard(name):
		var err error
		patients, err = m.store.SearchPatientsByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve patients: %w", err)
		}
	default:
		patient, err := m.store.FindPatientByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve patients: %w", err)
		}
		if patient != nil {
			patients = append(patients, patient)
		}
	}

	candidates := make([]Keys, 0, len(patients))
	for _, p := range patients {
		candidates = append(candidates, patientFields(p))
	}
	return filterResidual(candidates, keys, FieldPatientName), nil
}

// MatchStudies resolves the study-level candidates for keys. Results carry
// the denormalized parent-patient fields alongside the study fields.
func (m *Matcher) MatchStudies(ctx context.Context, keys Keys) ([]Keys, error) {
	var rows []*store.StudyWithPatient
	uid := keys.Get(FieldStudyInstanceUID)
	switch {
	case uid == "":
		var err error
		rows, err = m.store.ListStudyRows(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve studies: %w", err)
		}
	case hasWildcard(uid):
		var err error
		rows, err = m.store.SearchStudyRows(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("resolve studies: %w", err)
		}
	default:
		row, err := m.store.FindStudyRowByUID(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("resolve studies: %w", err)
		}
		if row != nil {
			rows = append(rows, row)
		}
	}

	candidates := make([]Keys, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, studyFields(row))
	}
	return filterResidual(candidates, keys, FieldStudyInstanceUID), nil
}

// MatchSeries resolves the series-level candidates for keys. Results carry
// the owning study's UID so queries can be study-scoped.
func (m *Matcher) MatchSeries(ctx context.Context, keys Keys) ([]Keys, error) {
	var rows []*store.SeriesWithStudy
	uid := keys.Get(FieldSeriesInstanceUID)
	switch {
	case uid == "":
		var err error
		rows, err = m.store.ListSeriesRows(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve series: %w", err)
		}
	case hasWildcard(uid):
		var err error
		rows, err = m.store.SearchSeriesRows(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("resolve series: %w", err)
		}
	default:
		row, err := m.store.FindSeriesRowByUID(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("resolve series: %w", err)
		}
		if row != nil {
			rows = append(rows, row)
		}
	}

	candidates := make([]Keys, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, seriesFields(row))
	}
	return filterResidual(candidates, keys, FieldSeriesInstanceUID), nil
}

// MatchImages resolves the image-level candidates for keys. Results carry
// the owning series' UID so queries can be series-scoped.
func (m *Matcher) MatchImages(ctx context.Context, keys Keys) ([]Keys, error) {
	var rows []*store.InstanceWithSeries
	uid := keys.Get(FieldSOPInstanceUID)
	switch {
	case uid == "":
		var err error
		rows, err = m.store.ListInstanceRows(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve images: %w", err)
		}
	case hasWildcard(uid):
		var err error
		rows, err = m.store.SearchInstanceRows(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("resolve images: %w", err)
		}
	default:
		row, err := m.store.FindInstanceRowByUID(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("resolve images: %w", err)
		}
		if row != nil {
			rows = append(rows, row)
		}
	}

	candidates := make([]Keys, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, imageFields(row))
	}
	return filterResidual(candidates, keys, FieldSOPInstanceUID), nil
}

// filterResidual applies every constraint besides the primary natural key as
// an in-memory filter. Constraints carrying * or ? match as patterns, the
// rest match exactly. An entity with a blank value for a requested field
// never matches a non-blank constraint.
func filterResidual(candidates []Keys, keys Keys, primaryField string) []Keys {
	residual := make(map[string]string)
	for field := range keys {
		if field == primaryField {
			continue
		}
		if value := keys.Get(field); value != "" {
			residual[field] = value
		}
	}
	if len(residual) == 0 {
		return candidates
	}

	matched := candidates[:0]
	for _, candidate := range candidates {
		ok := true
		for field, want := range residual {
			if !fieldMatches(candidate[field], want) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, candidate)
		}
	}
	return matched
}

func fieldMatches(value, want string) bool {
	if value == "" {
		return false
	}
	if hasWildcard(want) {
		return wildcardMatch(value, want)
	}
	return value == want
}

func patientFields(p *store.Patient) Keys {
	return Keys{
		FieldPatientName:      p.Name,
		FieldPatientID:        p.PatientID,
		FieldPatientBirthDate: p.BirthDate,
		FieldPatientSex:       p.Sex,
	}
}

func studyFields(row *store.StudyWithPatient) Keys {
	return Keys{
		FieldStudyInstanceUID:   row.StudyInstanceUID,
		FieldStudyID:            row.StudyID,
		FieldStudyDescription:   row.Description,
		FieldStudyDate:          row.StudyDate,
		FieldStudyTime:          row.StudyTime,
		FieldAccessionNumber:    row.AccessionNumber,
		FieldReferringPhysician: row.ReferringPhysician,
		FieldPatientName:        row.PatientName,
		FieldPatientID:          row.PatientIDValue,
		FieldPatientBirthDate:   row.PatientBirthDate,
		FieldPatientSex:         row.PatientSex,
	}
}

func seriesFields(row *store.SeriesWithStudy) Keys {
	return Keys{
		FieldSeriesInstanceUID: row.SeriesInstanceUID,
		FieldModality:          row.Modality,
		FieldSeriesNumber:      row.SeriesNumber,
		FieldSeriesDescription: row.Description,
		FieldBodyPartExamined:  row.BodyPart,
		FieldStudyInstanceUID:  row.StudyInstanceUID,
	}
}

func imageFields(row *store.InstanceWithSeries) Keys {
	return Keys{
		FieldSOPInstanceUID:    row.SOPInstanceUID,
		FieldInstanceNumber:    row.InstanceNumber,
		FieldStoragePath:       row.StoragePath,
		FieldSeriesInstanceUID: row.SeriesInstanceUID,
	}
}

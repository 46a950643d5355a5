package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mupacs/internal/logging"
	"mupacs/internal/metadata"
	"mupacs/internal/store"
)

// Sync idempotently merges one file's attributes into the persistent
// hierarchy, creating only the levels that do not exist yet.
type Sync struct {
	store  *store.Store
	logger *slog.Logger
}

// MergeResult reports what one merge did.
type MergeResult struct {
	SOPInstanceUID string
	// Duplicate is set when an instance with the same SOP UID already
	// existed; nothing was written.
	Duplicate bool
	// Created counts the rows persisted, zero to four depending on how
	// much of the ancestor chain already existed.
	Created int
}

// NewSync constructs a hierarchy merge bound to the given store.
func NewSync(st *store.Store, logger *slog.Logger) *Sync {
	return &Sync{
		store:  st,
		logger: logging.NewComponentLogger(logger, "hierarchy-sync"),
	}
}

// MergeFile folds attrs into the hierarchy, linking the new instance to the
// absolute source path. All writes for one file happen in a single unit of
// work. A concurrent importer creating the same entity between our lookup
// and insert surfaces as store.ErrDuplicateKey; the merge is retried once
// from the top so the re-lookup finds the winner's rows.
func (s *Sync) MergeFile(ctx context.Context, attrs metadata.Attributes, path string) (MergeResult, error) {
	if field := attrs.MissingField(); field != "" {
		return MergeResult{}, fmt.Errorf("%w: %s", ErrMissingRequiredField, field)
	}

	result, err := s.merge(ctx, attrs, path)
	if errors.Is(err, store.ErrDuplicateKey) {
		s.logger.Debug("merge raced a concurrent importer, retrying",
			logging.FieldPath, path)
		result, err = s.merge(ctx, attrs, path)
	}
	return result, err
}

func (s *Sync) merge(ctx context.Context, attrs metadata.Attributes, path string) (MergeResult, error) {
	result := MergeResult{SOPInstanceUID: attrs.SOPInstanceUID}

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		patient, err := tx.FindPatientByName(ctx, attrs.PatientName)
		if err != nil {
			return err
		}
		if patient == nil {
			patient = &store.Patient{
				Name:      attrs.PatientName,
				PatientID: attrs.PatientID,
				BirthDate: attrs.PatientBirthDate,
				Sex:       attrs.PatientSex,
			}
			if err := tx.InsertPatient(ctx, patient); err != nil {
				return err
			}
			result.Created++
		}

		study, err := tx.FindStudyByUID(ctx, attrs.StudyInstanceUID)
		if err != nil {
			return err
		}
		if study == nil {
			study = &store.Study{
				PatientID:          patient.ID,
				StudyInstanceUID:   attrs.StudyInstanceUID,
				StudyID:            attrs.StudyID,
				Description:        attrs.StudyDescription,
				StudyDate:          attrs.StudyDate,
				StudyTime:          attrs.StudyTime,
				AccessionNumber:    attrs.AccessionNumber,
				ReferringPhysician: attrs.ReferringPhysician,
			}
			if err := tx.InsertStudy(ctx, study); err != nil {
				return err
			}
			result.Created++
		}

		series, err := tx.FindSeriesByUID(ctx, attrs.SeriesInstanceUID)
		if err != nil {
			return err
		}
		if series == nil {
			series = &store.Series{
				StudyID:           study.ID,
				SeriesInstanceUID: attrs.SeriesInstanceUID,
				Modality:          attrs.Modality,
				SeriesNumber:      attrs.SeriesNumber,
				Description:       attrs.SeriesDescription,
				BodyPart:          attrs.BodyPartExamined,
			}
			if err := tx.InsertSeries(ctx, series); err != nil {
				return err
			}
			result.Created++
		}

		instance, err := tx.FindInstanceByUID(ctx, attrs.SOPInstanceUID)
		if err != nil {
			return err
		}
		if instance != nil {
			result.Duplicate = true
			return nil
		}

		instance = &store.Instance{
			SeriesID:       series.ID,
			SOPInstanceUID: attrs.SOPInstanceUID,
			InstanceNumber: attrs.InstanceNumber,
			StoragePath:    path,
		}
		if err := tx.InsertInstance(ctx, instance); err != nil {
			return err
		}
		result.Created++
		return nil
	})
	if err != nil {
		return MergeResult{SOPInstanceUID: attrs.SOPInstanceUID}, err
	}

	if result.Duplicate {
		s.logger.Info("instance already archived, skipping duplicate",
			"sop_instance_uid", attrs.SOPInstanceUID,
			logging.FieldPath, path)
	}
	return result, nil
}

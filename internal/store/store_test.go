package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mupacs/internal/store"
	"mupacs/internal/testsupport"
)

func seedPatient(t *testing.T, st *store.Store, name string) *store.Patient {
	t.Helper()
	p := &store.Patient{Name: name, PatientID: "PAT001", BirthDate: "19700101", Sex: "M"}
	if err := st.InsertPatient(context.Background(), p); err != nil {
		t.Fatalf("InsertPatient failed: %v", err)
	}
	return p
}

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	p := seedPatient(t, st, "Doe^John")
	if p.ID == 0 {
		t.Fatal("expected patient ID to be assigned")
	}

	fetched, err := st.FindPatientByName(ctx, "Doe^John")
	if err != nil {
		t.Fatalf("FindPatientByName failed: %v", err)
	}
	if fetched == nil || fetched.ID != p.ID {
		t.Fatalf("unexpected fetched patient: %#v", fetched)
	}

	missing, err := st.FindPatientByName(ctx, "Nobody^Here")
	if err != nil {
		t.Fatalf("FindPatientByName failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent patient, got %#v", missing)
	}
}

func TestReopenKeepsSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenStore(t, cfg)
	seedPatient(t, first, "Doe^John")
	if err := first.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	second := testsupport.MustOpenStore(t, cfg)
	p, err := second.FindPatientByName(context.Background(), "Doe^John")
	if err != nil {
		t.Fatalf("FindPatientByName after reopen: %v", err)
	}
	if p == nil {
		t.Fatal("expected patient to survive reopen")
	}
}

func TestNaturalKeysAreUnique(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	p := seedPatient(t, st, "Doe^John")
	if err := st.InsertPatient(ctx, &store.Patient{Name: "Doe^John"}); !errors.Is(err, store.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for patient name, got %v", err)
	}

	study := &store.Study{PatientID: p.ID, StudyInstanceUID: "1.2.3"}
	if err := st.InsertStudy(ctx, study); err != nil {
		t.Fatalf("InsertStudy failed: %v", err)
	}
	if err := st.InsertStudy(ctx, &store.Study{PatientID: p.ID, StudyInstanceUID: "1.2.3"}); !errors.Is(err, store.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for study UID, got %v", err)
	}

	series := &store.Series{StudyID: study.ID, SeriesInstanceUID: "1.2.3.1"}
	if err := st.InsertSeries(ctx, series); err != nil {
		t.Fatalf("InsertSeries failed: %v", err)
	}
	if err := st.InsertSeries(ctx, &store.Series{StudyID: study.ID, SeriesInstanceUID: "1.2.3.1"}); !errors.Is(err, store.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for series UID, got %v", err)
	}

	instance := &store.Instance{SeriesID: series.ID, SOPInstanceUID: "1.2.3.1.1", StoragePath: "/tmp/a.dcm"}
	if err := st.InsertInstance(ctx, instance); err != nil {
		t.Fatalf("InsertInstance failed: %v", err)
	}
	if err := st.InsertInstance(ctx, &store.Instance{SeriesID: series.ID, SOPInstanceUID: "1.2.3.1.1", StoragePath: "/tmp/b.dcm"}); !errors.Is(err, store.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey for SOP UID, got %v", err)
	}
}

func TestChildCollections(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	p := seedPatient(t, st, "Doe^John")
	study := &store.Study{PatientID: p.ID, StudyInstanceUID: "1.2.3.4"}
	if err := st.InsertStudy(ctx, study); err != nil {
		t.Fatalf("InsertStudy failed: %v", err)
	}

	for i := 1; i <= 2; i++ {
		series := &store.Series{StudyID: study.ID, SeriesInstanceUID: fmt.Sprintf("1.2.3.4.%d", i), Modality: "CT"}
		if err := st.InsertSeries(ctx, series); err != nil {
			t.Fatalf("InsertSeries failed: %v", err)
		}
		for j := 1; j <= 2; j++ {
			in := &store.Instance{
				SeriesID:       series.ID,
				SOPInstanceUID: fmt.Sprintf("1.2.3.4.%d.%d", i, j),
				StoragePath:    fmt.Sprintf("/tmp/%d-%d.dcm", i, j),
			}
			if err := st.InsertInstance(ctx, in); err != nil {
				t.Fatalf("InsertInstance failed: %v", err)
			}
		}
	}

	studies, err := st.StudiesForPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("StudiesForPatient failed: %v", err)
	}
	if len(studies) != 1 {
		t.Fatalf("expected 1 study, got %d", len(studies))
	}
	series, err := st.SeriesForStudy(ctx, study.ID)
	if err != nil {
		t.Fatalf("SeriesForStudy failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	for _, se := range series {
		instances, err := st.InstancesForSeries(ctx, se.ID)
		if err != nil {
			t.Fatalf("InstancesForSeries failed: %v", err)
		}
		if len(instances) != 2 {
			t.Fatalf("expected 2 instances in %s, got %d", se.SeriesInstanceUID, len(instances))
		}
	}

	counts, err := st.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	want := store.Counts{Patients: 1, Studies: 1, Series: 2, Instances: 4}
	if counts != want {
		t.Fatalf("unexpected counts: got %+v want %+v", counts, want)
	}
}

func TestSearchPatientsByNameWildcards(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, name := range []string{"Doe^John", "Doe^Jane", "Smith^Doe", "100%^Match", "Under_Score^X"} {
		if err := st.InsertPatient(ctx, &store.Patient{Name: name}); err != nil {
			t.Fatalf("InsertPatient(%s) failed: %v", name, err)
		}
	}

	cases := []struct {
		pattern string
		want    int
	}{
		{"Doe*", 2},
		{"*Doe*", 3},
		{"Doe^J?ne", 1},
		{"Smith*", 1},
		{"Nobody*", 0},
		// LIKE metacharacters in the pattern must be treated literally.
		{"100%^Match", 1},
		{"100?^Match", 1},
		{"Under_Score^X", 1},
		{"100_^Match", 0},
	}
	for _, tc := range cases {
		got, err := st.SearchPatientsByName(ctx, tc.pattern)
		if err != nil {
			t.Fatalf("SearchPatientsByName(%q) failed: %v", tc.pattern, err)
		}
		if len(got) != tc.want {
			t.Fatalf("pattern %q: expected %d matches, got %d", tc.pattern, tc.want, len(got))
		}
	}
}

func TestStudyRowsCarryPatientFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	p := seedPatient(t, st, "Doe^John")
	study := &store.Study{PatientID: p.ID, StudyInstanceUID: "1.2.3.4", Description: "CT ABDOMEN"}
	if err := st.InsertStudy(ctx, study); err != nil {
		t.Fatalf("InsertStudy failed: %v", err)
	}

	row, err := st.FindStudyRowByUID(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("FindStudyRowByUID failed: %v", err)
	}
	if row == nil {
		t.Fatal("expected study row")
	}
	if row.PatientName != "Doe^John" || row.PatientIDValue != "PAT001" || row.PatientSex != "M" {
		t.Fatalf("unexpected denormalized patient fields: %+v", row)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	sentinel := errors.New("merge failed")
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.InsertPatient(ctx, &store.Patient{Name: "Doe^John"}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	p, err := st.FindPatientByName(ctx, "Doe^John")
	if err != nil {
		t.Fatalf("FindPatientByName failed: %v", err)
	}
	if p != nil {
		t.Fatalf("expected rollback to discard patient, got %#v", p)
	}
}

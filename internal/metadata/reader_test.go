package metadata_test

import (
	"path/filepath"
	"testing"

	"mupacs/internal/metadata"
	"mupacs/internal/testsupport"
)

func TestFileReaderExtractsAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.dcm")
	want := testsupport.SampleAttributes()
	testsupport.WriteDICOMFile(t, path, want)

	got, err := metadata.NewFileReader().ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != want {
		t.Errorf("attributes = %+v, want %+v", got, want)
	}
	if !got.HasRequiredFields() {
		t.Error("round-tripped attributes missing required fields")
	}
}

func TestFileReaderBlankForAbsentElements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparse.dcm")
	attrs := testsupport.SampleAttributes()
	attrs.PatientBirthDate = ""
	attrs.StudyDescription = ""
	attrs.BodyPartExamined = ""
	testsupport.WriteDICOMFile(t, path, attrs)

	got, err := metadata.NewFileReader().ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.PatientBirthDate != "" || got.StudyDescription != "" || got.BodyPartExamined != "" {
		t.Errorf("absent elements decoded non-blank: %+v", got)
	}
	if got.MissingField() != "" {
		t.Errorf("MissingField = %q, want none", got.MissingField())
	}
}

func TestFileReaderRejectsNonArchiveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	testsupport.WriteTextFile(t, path)

	if _, err := metadata.NewFileReader().ReadFile(path); err == nil {
		t.Error("non-archive file parsed without error")
	}
}

func TestAttributesMissingFieldOrder(t *testing.T) {
	var attrs metadata.Attributes
	if got := attrs.MissingField(); got != "PatientName" {
		t.Errorf("MissingField = %q, want PatientName", got)
	}
	attrs.PatientName = "Doe^John"
	if got := attrs.MissingField(); got != "StudyInstanceUID" {
		t.Errorf("MissingField = %q, want StudyInstanceUID", got)
	}
	attrs.StudyInstanceUID = "1.2.3.4"
	if got := attrs.MissingField(); got != "SeriesInstanceUID" {
		t.Errorf("MissingField = %q, want SeriesInstanceUID", got)
	}
	attrs.SeriesInstanceUID = "1.2.3.4.1"
	if got := attrs.MissingField(); got != "SOPInstanceUID" {
		t.Errorf("MissingField = %q, want SOPInstanceUID", got)
	}
	attrs.SOPInstanceUID = "1.2.3.4.1.1"
	if got := attrs.MissingField(); got != "" {
		t.Errorf("MissingField = %q, want none", got)
	}
}

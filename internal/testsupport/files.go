package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"mupacs/internal/metadata"
)

// explicit VR little endian, the transfer syntax test fixtures are written in.
const testTransferSyntax = "1.2.840.10008.1.2.1"

// secondary capture SOP class, a reasonable default for header-only fixtures.
const testSOPClass = "1.2.840.10008.5.1.4.1.1.7"

// WriteDICOMFile writes a parseable DICOM file carrying the non-blank fields
// of attrs, for exercising the metadata reader and the import pipeline
// against real archive files.
func WriteDICOMFile(t testing.TB, path string, attrs metadata.Attributes) {
	t.Helper()

	var elements []*dicom.Element
	appendString := func(elemTag tag.Tag, value string) {
		if value == "" {
			return
		}
		elem, err := dicom.NewElement(elemTag, []string{value})
		if err != nil {
			t.Fatalf("new element %v: %v", elemTag, err)
		}
		elements = append(elements, elem)
	}

	appendString(tag.MediaStorageSOPClassUID, testSOPClass)
	appendString(tag.MediaStorageSOPInstanceUID, attrs.SOPInstanceUID)
	appendString(tag.TransferSyntaxUID, testTransferSyntax)

	appendString(tag.PatientName, attrs.PatientName)
	appendString(tag.PatientID, attrs.PatientID)
	appendString(tag.PatientBirthDate, attrs.PatientBirthDate)
	appendString(tag.PatientSex, attrs.PatientSex)
	appendString(tag.StudyInstanceUID, attrs.StudyInstanceUID)
	appendString(tag.StudyID, attrs.StudyID)
	appendString(tag.StudyDescription, attrs.StudyDescription)
	appendString(tag.StudyDate, attrs.StudyDate)
	appendString(tag.StudyTime, attrs.StudyTime)
	appendString(tag.AccessionNumber, attrs.AccessionNumber)
	appendString(tag.ReferringPhysicianName, attrs.ReferringPhysician)
	appendString(tag.SeriesInstanceUID, attrs.SeriesInstanceUID)
	appendString(tag.Modality, attrs.Modality)
	appendString(tag.SeriesNumber, attrs.SeriesNumber)
	appendString(tag.SeriesDescription, attrs.SeriesDescription)
	appendString(tag.BodyPartExamined, attrs.BodyPartExamined)
	appendString(tag.SOPInstanceUID, attrs.SOPInstanceUID)
	appendString(tag.InstanceNumber, attrs.InstanceNumber)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()

	ds := dicom.Dataset{Elements: elements}
	if err := dicom.Write(file, ds, dicom.SkipVRVerification()); err != nil {
		t.Fatalf("write dicom fixture %s: %v", path, err)
	}
}

// SampleAttributes returns a complete attribute set for fixtures; callers
// override identifiers as needed.
func SampleAttributes() metadata.Attributes {
	return metadata.Attributes{
		PatientName:      "Doe^John",
		PatientID:        "PAT001",
		PatientBirthDate: "19700101",
		PatientSex:       "M",

		StudyInstanceUID: "1.2.3.4",
		StudyID:          "ST1",
		StudyDescription: "CT ABDOMEN",
		StudyDate:        "20250110",
		StudyTime:        "101500",
		AccessionNumber:  "ACC-1",

		SeriesInstanceUID: "1.2.3.4.1",
		Modality:          "CT",
		SeriesNumber:      "1",
		SeriesDescription: "AXIAL",
		BodyPartExamined:  "ABDOMEN",

		SOPInstanceUID: "1.2.3.4.1.1",
		InstanceNumber: "1",
	}
}

// WriteTextFile writes a small non-archive file, for walk filtering tests.
func WriteTextFile(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("not an archive file\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

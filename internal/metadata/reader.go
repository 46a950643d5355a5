package metadata

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Reader decodes the attribute set from one archive file.
type Reader interface {
	ReadFile(path string) (Attributes, error)
}

// FileReader parses DICOM files from disk, skipping pixel data so large
// images cost no more than their headers.
type FileReader struct{}

// NewFileReader returns the production DICOM-backed Reader.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// ReadFile parses the file at path and extracts the hierarchy attributes.
func (r *FileReader) ReadFile(path string) (Attributes, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return Attributes{}, fmt.Errorf("parse dicom file %s: %w", path, err)
	}

	attrs := Attributes{
		PatientName:      stringByTag(&ds, tag.PatientName),
		PatientID:        stringByTag(&ds, tag.PatientID),
		PatientBirthDate: stringByTag(&ds, tag.PatientBirthDate),
		PatientSex:       stringByTag(&ds, tag.PatientSex),

		StudyInstanceUID:   stringByTag(&ds, tag.StudyInstanceUID),
		StudyID:            stringByTag(&ds, tag.StudyID),
		StudyDescription:   stringByTag(&ds, tag.StudyDescription),
		StudyDate:          stringByTag(&ds, tag.StudyDate),
		StudyTime:          stringByTag(&ds, tag.StudyTime),
		AccessionNumber:    stringByTag(&ds, tag.AccessionNumber),
		ReferringPhysician: stringByTag(&ds, tag.ReferringPhysicianName),

		SeriesInstanceUID: stringByTag(&ds, tag.SeriesInstanceUID),
		Modality:          stringByTag(&ds, tag.Modality),
		SeriesNumber:      stringByTag(&ds, tag.SeriesNumber),
		SeriesDescription: stringByTag(&ds, tag.SeriesDescription),
		BodyPartExamined:  stringByTag(&ds, tag.BodyPartExamined),

		SOPInstanceUID: stringByTag(&ds, tag.SOPInstanceUID),
		InstanceNumber: stringByTag(&ds, tag.InstanceNumber),
	}
	return attrs, nil
}

// stringByTag extracts the first string value for the given tag, using the
// element's typed value so we store clean values like "CT" or "1.2.840..."
// instead of the verbose Element.String() representation.
func stringByTag(ds *dicom.Dataset, t tag.Tag) string {
	if ds == nil {
		return ""
	}
	el, err := ds.FindElementByTag(t)
	if err != nil || el == nil {
		return ""
	}
	vals := dicom.MustGetStrings(el.Value)
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

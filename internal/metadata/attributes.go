package metadata

import "strings"

// Attributes is the decoded header of one archive file. Every field is a raw
// DICOM string value; blank means the file did not carry the element.
type Attributes struct {
	PatientName      string
	PatientID        string
	PatientBirthDate string
	PatientSex       string

	StudyInstanceUID   string
	StudyID            string
	StudyDescription   string
	StudyDate          string
	StudyTime          string
	AccessionNumber    string
	ReferringPhysician string

	SeriesInstanceUID string
	Modality          string
	SeriesNumber      string
	SeriesDescription string
	BodyPartExamined  string

	SOPInstanceUID string
	InstanceNumber string
}

// HasRequiredFields reports whether the attribute set carries every
// identifier the hierarchy needs: patient name plus the study, series, and
// instance UIDs.
func (a Attributes) HasRequiredFields() bool {
	return a.MissingField() == ""
}

// MissingField names the first required field that is blank, or returns ""
// when all required fields are present.
func (a Attributes) MissingField() string {
	switch {
	case strings.TrimSpace(a.PatientName) == "":
		return "PatientName"
	case strings.TrimSpace(a.StudyInstanceUID) == "":
		return "StudyInstanceUID"
	case strings.TrimSpace(a.SeriesInstanceUID) == "":
		return "SeriesInstanceUID"
	case strings.TrimSpace(a.SOPInstanceUID) == "":
		return "SOPInstanceUID"
	}
	return ""
}

package query

import "strings"

// Level identifies one tier of the hierarchy a query is scoped to.
type Level string

const (
	LevelPatient Level = "PATIENT"
	LevelStudy   Level = "STUDY"
	LevelSeries  Level = "SERIES"
	LevelImage   Level = "IMAGE"
)

// ParseLevel normalizes a level name. The empty string is not a level.
func ParseLevel(value string) (Level, bool) {
	switch Level(strings.ToUpper(strings.TrimSpace(value))) {
	case LevelPatient:
		return LevelPatient, true
	case LevelStudy:
		return LevelStudy, true
	case LevelSeries:
		return LevelSeries, true
	case LevelImage:
		return LevelImage, true
	}
	return "", false
}

// Query field names, matching the DICOM attribute keywords the protocol
// layer supplies.
const (
	FieldPatientName        = "PatientName"
	FieldPatientID          = "PatientID"
	FieldPatientBirthDate   = "PatientBirthDate"
	FieldPatientSex         = "PatientSex"
	FieldStudyInstanceUID   = "StudyInstanceUID"
	FieldStudyID            = "StudyID"
	FieldStudyDescription   = "StudyDescription"
	FieldStudyDate          = "StudyDate"
	FieldStudyTime          = "StudyTime"
	FieldAccessionNumber    = "AccessionNumber"
	FieldReferringPhysician = "ReferringPhysicianName"
	FieldSeriesInstanceUID  = "SeriesInstanceUID"
	FieldModality           = "Modality"
	FieldSeriesNumber       = "SeriesNumber"
	FieldSeriesDescription  = "SeriesDescription"
	FieldBodyPartExamined   = "BodyPartExamined"
	FieldSOPInstanceUID     = "SOPInstanceUID"
	FieldInstanceNumber     = "InstanceNumber"
	FieldStoragePath        = "StoragePath"
)

// Keys is the search-key set of one query: field name to requested value.
// A blank value means "don't filter on this field".
type Keys map[string]string

// Clone returns an independent copy of the key set.
func (k Keys) Clone() Keys {
	out := make(Keys, len(k))
	for field, value := range k {
		out[field] = value
	}
	return out
}

// Get returns the trimmed value for field, blank when absent.
func (k Keys) Get(field string) string {
	return strings.TrimSpace(k[field])
}

// hasWildcard reports whether value carries DICOM wildcard characters.
func hasWildcard(value string) bool {
	return strings.ContainsAny(value, "*?")
}

// wildcardMatch reports whether value matches pattern, where * matches any
// run of characters and ? matches exactly one. Iterative with single-star
// backtracking, so adversarial patterns stay linear.
func wildcardMatch(value, pattern string) bool {
	v, p := 0, 0
	star, mark := -1, 0
	for v < len(value) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == value[v]):
			v++
			p++
		case p < len(pattern) && pattern[p] == '*':
			star = p
			mark = v
			p++
		case star >= 0:
			mark++
			v = mark
			p = star + 1
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

package store

// Patient is the root of the hierarchy. Name is the natural key.
type Patient struct {
	ID        int64
	Name      string
	PatientID string
	BirthDate string
	Sex       string
}

// Study belongs to exactly one Patient. StudyInstanceUID is the natural key;
// PatientID references the owning patient row.
type Study struct {
	ID                 int64
	PatientID          int64
	StudyInstanceUID   string
	StudyID            string
	Description        string
	StudyDate          string
	StudyTime          string
	AccessionNumber    string
	ReferringPhysician string
}

// Series belongs to exactly one Study. SeriesInstanceUID is the natural key.
type Series struct {
	ID                int64
	StudyID           int64
	SeriesInstanceUID string
	Modality          string
	SeriesNumber      string
	Description       string
	BodyPart          string
}

// Instance belongs to exactly one Series. SOPInstanceUID is the natural key;
// StoragePath is set once, at creation, to the absolute source path.
type Instance struct {
	ID             int64
	SeriesID       int64
	SOPInstanceUID string
	InstanceNumber string
	StoragePath    string
}

// StudyWithPatient is a study row joined with the denormalized parent
// patient fields study-level queries return.
type StudyWithPatient struct {
	Study
	PatientName      string
	PatientIDValue   string
	PatientBirthDate string
	PatientSex       string
}

// SeriesWithStudy is a series row joined with the owning study's UID so
// series-level queries can be scoped by study.
type SeriesWithStudy struct {
	Series
	StudyInstanceUID string
}

// InstanceWithSeries is an instance row joined with the owning series' UID.
type InstanceWithSeries struct {
	Instance
	SeriesInstanceUID string
}

// Counts summarizes hierarchy cardinalities for status reporting.
type Counts struct {
	Patients  int64
	Studies   int64
	Series    int64
	Instances int64
}

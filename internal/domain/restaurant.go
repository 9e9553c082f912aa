package domain

import "time"

// Grade is the canonical grade used internally regardless of how the
// source jurisdiction scores its inspections.
type Grade string

const (
	GradeA       Grade = "A"
	GradeB       Grade = "B"
	GradeC       Grade = "C"
	GradePass    Grade = "PASS"
	GradeFail    Grade = "FAIL"
	GradeUnknown Grade = "UNKNOWN"
)

// Identity uniquely identifies a restaurant across ingestion runs.
// ExternalID is whatever stable id the source publishes (CAMIS, license
// number, facility id).
type Identity struct {
	Jurisdiction string `json:"jurisdiction"`
	ExternalID   string `json:"external_id"`
}

// Key renders the identity as a single cache/log key.
func (id Identity) Key() string { return id.Jurisdiction + ":" + id.ExternalID }

type Restaurant struct {
	Identity
	Name          string
	Address       string
	Locality      *string // borough / city district when the source has one
	Phone         *string
	Cuisine       *string
	Grade         Grade
	RawGrade      string // source vocabulary token, preserved for audit
	Score         *int   // not all jurisdictions publish a numeric score
	LastInspected time.Time
	Inspections   []Inspection
}

// Inspection history is append-only; rows are never mutated in place.
type Inspection struct {
	Date       time.Time
	Grade      Grade
	Violations []string // ordered free-text descriptions
	Critical   bool
}

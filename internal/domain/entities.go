// Package domain defines the persistent entities and store abstractions
// shared by the packaging pipeline and the runtime session layer.
package domain

import "time"

// SCORMVersion identifies the packaging specification a package conforms to.
type SCORMVersion string

// Supported packaging specification versions.
const (
	// SCORM12 is the SCORM 1.2 packaging and runtime profile.
	SCORM12 SCORMVersion = "1.2"
	// SCORM2004 covers all SCORM 2004 editions.
	SCORM2004 SCORMVersion = "2004"
)

// PackageRecord is the catalog entry for a validated, extracted content package.
type PackageRecord struct {
	ID           string       `json:"id"`
	CourseID     string       `json:"course_id"`
	Identifier   string       `json:"identifier"`
	Title        string       `json:"title"`
	Version      SCORMVersion `json:"scorm_version"`
	LaunchURL    string       `json:"launch_url"`
	StoragePath  string       `json:"storage_path"`
	SizeBytes    int64        `json:"size_bytes"`
	ManifestXML  string       `json:"manifest_xml"`
	CreatedAt    time.Time    `json:"created_at"`
}

// SessionSnapshot is the durable form of a runtime session's data model.
// It is the payload exchanged with session persistence on commit and hydrate.
type SessionSnapshot struct {
	SessionID    string              `json:"session_id"`
	PackageID    string              `json:"package_id"`
	DataModel    map[string]string   `json:"data_model"`
	Interactions []map[string]string `json:"interactions"`
	Objectives   []map[string]string `json:"objectives"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate freely.
func (s SessionSnapshot) Clone() SessionSnapshot {
	dup := s
	dup.DataModel = cloneStringMap(s.DataModel)
	dup.Interactions = cloneRecords(s.Interactions)
	dup.Objectives = cloneRecords(s.Objectives)
	return dup
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneRecords(in []map[string]string) []map[string]string {
	if in == nil {
		return nil
	}
	out := make([]map[string]string, len(in))
	for i, rec := range in {
		out[i] = cloneStringMap(rec)
	}
	return out
}

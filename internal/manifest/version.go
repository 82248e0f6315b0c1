package manifest

import (
	"strings"

	"scormhost/internal/domain"
)

// DetectVersion classifies a manifest as SCORM 1.2 or SCORM 2004 from its
// schema metadata and schema-location hints. Any hint naming 2004 wins; a
// manifest with no usable hints also classifies as 2004. The heuristic is
// known to be imperfect for exotic real-world packages.
func DetectVersion(m *Manifest) domain.SCORMVersion {
	hints := strings.ToLower(strings.Join([]string{
		m.Metadata.SchemaVersion,
		m.Metadata.Schema,
		m.SchemaLocation,
		m.Version,
	}, " "))
	if strings.Contains(hints, "2004") || strings.Contains(hints, "cam 1.3") {
		return domain.SCORM2004
	}
	if strings.Contains(hints, "1.2") || strings.Contains(hints, "1p2") {
		return domain.SCORM12
	}
	return domain.SCORM2004
}

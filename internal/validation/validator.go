// Package validation checks uploaded content packages for conformance with
// the SCORM packaging specification before anything is extracted or
// catalogued. Errors block acceptance; warnings are advisory.
package validation

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"scormhost/internal/domain"
	"scormhost/internal/manifest"
)

// ManifestFileName is the well-known manifest path inside a package archive.
const ManifestFileName = "imsmanifest.xml"

// DefaultMaxPackageBytes is the upload size ceiling (100 MiB).
const DefaultMaxPackageBytes = 100 << 20

// Result aggregates the outcome of validating one uploaded archive.
// IsValid is true iff Errors is empty; warnings never block acceptance.
type Result struct {
	IsValid     bool                `json:"is_valid"`
	Errors      []string            `json:"errors"`
	Warnings    []string            `json:"warnings"`
	Manifest    *manifest.Manifest  `json:"-"`
	RawManifest []byte              `json:"-"`
	Version     domain.SCORMVersion `json:"scorm_version,omitempty"`
	SizeBytes   int64               `json:"size_bytes"`
}

// Validator orchestrates parse, structural, and resource validation.
type Validator struct {
	maxBytes int64
}

// New returns a validator with the default size ceiling.
func New() *Validator {
	return &Validator{maxBytes: DefaultMaxPackageBytes}
}

// NewWithLimit returns a validator with a custom size ceiling.
func NewWithLimit(maxBytes int64) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPackageBytes
	}
	return &Validator{maxBytes: maxBytes}
}

// Validate runs the full pipeline against archive bytes. Size and archive
// well-formedness are checked before any manifest work so oversized or
// corrupt uploads short-circuit cheaply. Unexpected panics are reported as a
// generic processing failure rather than propagated.
func (v *Validator) Validate(name string, data []byte) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Errors: []string{fmt.Sprintf("package processing failed: %v", r)}, SizeBytes: int64(len(data))}
		}
	}()

	res.SizeBytes = int64(len(data))
	if res.SizeBytes > v.maxBytes {
		res.Errors = append(res.Errors, fmt.Sprintf("package exceeds maximum size of %d bytes", v.maxBytes))
		return res
	}

	archive, err := zip.NewReader(bytes.NewReader(data), res.SizeBytes)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s is not a readable zip archive: %v", name, err))
		return res
	}

	raw, ok := readManifest(archive)
	if !ok {
		res.Errors = append(res.Errors, "package is missing "+ManifestFileName)
		return res
	}
	res.RawManifest = raw

	m, err := manifest.Parse(raw)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}
	res.Manifest = m

	if schema := m.Metadata.Schema; schema != "" && !strings.Contains(strings.ToLower(schema), "scorm") {
		res.Errors = append(res.Errors, fmt.Sprintf("unsupported package schema %q", schema))
		return res
	}
	res.Version = manifest.DetectVersion(m)

	errs, warns := ValidateStructure(m)
	res.Errors = append(res.Errors, errs...)
	res.Warnings = append(res.Warnings, warns...)

	errs, warns = ValidateResources(listing(archive), m)
	res.Errors = append(res.Errors, errs...)
	res.Warnings = append(res.Warnings, warns...)

	res.IsValid = len(res.Errors) == 0
	return res
}

// ValidateStructure enforces the manifest-level invariants: required
// identifiers, the presence of organizations and resources, at least one
// navigable item, and no dangling item references.
func ValidateStructure(m *manifest.Manifest) (errs, warns []string) {
	if strings.TrimSpace(m.Identifier) == "" {
		errs = append(errs, "manifest is missing its identifier attribute")
	}
	orgs := m.Organizations.Organizations
	if len(orgs) == 0 {
		errs = append(errs, "manifest declares no organizations")
	}
	hasItem := false
	for _, org := range orgs {
		if strings.TrimSpace(org.Identifier) == "" {
			errs = append(errs, "organization is missing its identifier attribute")
		}
		if strings.TrimSpace(org.Title) == "" {
			errs = append(errs, fmt.Sprintf("organization %s is missing a title", org.Identifier))
		}
		if len(org.Items) > 0 {
			hasItem = true
		}
		errs = append(errs, checkItemRefs(m, org.Items)...)
	}
	if len(orgs) > 0 && !hasItem {
		errs = append(errs, "no organization declares any items")
	}
	if len(m.Resources.Resources) == 0 {
		errs = append(errs, "manifest declares no resources")
	}
	for _, res := range m.Resources.Resources {
		if strings.TrimSpace(res.Identifier) == "" {
			errs = append(errs, "resource is missing its identifier attribute")
		}
	}
	return errs, warns
}

// ValidateResources cross-references declared paths against the archive
// listing. A missing entry-point href is fatal; missing auxiliary file
// declarations are advisory, since a package can often still launch without
// them. Files present in the archive but referenced by nothing are not
// flagged.
func ValidateResources(files map[string]struct{}, m *manifest.Manifest) (errs, warns []string) {
	for _, res := range m.Resources.Resources {
		if res.Href != "" {
			if _, ok := files[normalizePath(res.Href)]; !ok {
				errs = append(errs, fmt.Sprintf("resource %s entry point %s is missing from the archive", res.Identifier, res.Href))
			}
		}
		for _, f := range res.Files {
			if f.Href == "" {
				continue
			}
			if _, ok := files[normalizePath(f.Href)]; !ok {
				warns = append(warns, fmt.Sprintf("resource %s file %s is missing from the archive", res.Identifier, f.Href))
			}
		}
		for _, dep := range res.Dependencies {
			if _, ok := m.FindResource(dep.IdentifierRef); !ok {
				warns = append(warns, fmt.Sprintf("resource %s depends on undeclared resource %s", res.Identifier, dep.IdentifierRef))
			}
		}
	}
	return errs, warns
}

func checkItemRefs(m *manifest.Manifest, items []manifest.Item) []string {
	var errs []string
	for _, item := range items {
		if item.IdentifierRef != "" {
			if _, ok := m.FindResource(item.IdentifierRef); !ok {
				errs = append(errs, fmt.Sprintf("item %s references undeclared resource %s", item.Identifier, item.IdentifierRef))
			}
		}
		errs = append(errs, checkItemRefs(m, item.Items)...)
	}
	return errs
}

func readManifest(archive *zip.Reader) ([]byte, bool) {
	for _, f := range archive.File {
		if normalizePath(f.Name) == ManifestFileName {
			rc, err := f.Open()
			if err != nil {
				return nil, false
			}
			defer func() { _ = rc.Close() }()
			data, err := io.ReadAll(rc)
			if err != nil {
				return nil, false
			}
			return data, true
		}
	}
	return nil, false
}

func listing(archive *zip.Reader) map[string]struct{} {
	files := make(map[string]struct{}, len(archive.File))
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files[normalizePath(f.Name)] = struct{}{}
	}
	return files
}

// normalizePath strips leading ./, query strings, and fragments so manifest
// hrefs like "index.html?lang=en" match archive member names.
func normalizePath(p string) string {
	p = strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "./")
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return p
}

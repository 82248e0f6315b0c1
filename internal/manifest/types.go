// Package manifest parses IMS content-package manifests and resolves the
// launchable entry point of a package. Parsing is a pure transform; all
// archive-level conformance checks live in the validation package.
package manifest

import (
	"encoding/xml"
	"fmt"
)

// Manifest is the parsed representation of an imsmanifest.xml document.
// Repeated sibling elements decode into slices, so downstream code never
// distinguishes singleton from array shapes.
type Manifest struct {
	XMLName        xml.Name      `xml:"manifest"`
	Identifier     string        `xml:"identifier,attr"`
	Version        string        `xml:"version,attr"`
	SchemaLocation string        `xml:"schemaLocation,attr"`
	Metadata       Metadata      `xml:"metadata"`
	Organizations  Organizations `xml:"organizations"`
	Resources      Resources     `xml:"resources"`
}

// Metadata carries the schema hints used for version detection.
type Metadata struct {
	Schema        string `xml:"schema"`
	SchemaVersion string `xml:"schemaversion"`
}

// Organizations wraps the organization list and the declared default.
type Organizations struct {
	Default       string         `xml:"default,attr"`
	Organizations []Organization `xml:"organization"`
}

// Organization is a named navigation tree of items.
type Organization struct {
	Identifier string `xml:"identifier,attr"`
	Title      string `xml:"title"`
	Items      []Item `xml:"item"`
}

// Item is a node in an organization tree. Leaf items carry an identifierref
// pointing at a resource; branch items only hold children.
type Item struct {
	Identifier    string `xml:"identifier,attr"`
	IdentifierRef string `xml:"identifierref,attr"`
	Title         string `xml:"title"`
	Items         []Item `xml:"item"`
}

// Resources wraps the declared resource list.
type Resources struct {
	Resources []Resource `xml:"resource"`
}

// Resource declares a content asset: its type, entry point, files, and
// dependencies on other resources.
type Resource struct {
	Identifier   string       `xml:"identifier,attr"`
	Type         string       `xml:"type,attr"`
	SCORMType    string       `xml:"scormtype,attr"`
	Href         string       `xml:"href,attr"`
	Files        []File       `xml:"file"`
	Dependencies []Dependency `xml:"dependency"`
}

// File is a path declared as belonging to a resource.
type File struct {
	Href string `xml:"href,attr"`
}

// Dependency references another resource whose files this one needs.
type Dependency struct {
	IdentifierRef string `xml:"identifierref,attr"`
}

// ParseError reports manifest markup that is not well-formed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse manifest: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LaunchError reports a manifest that is syntactically valid but cannot
// resolve a launchable entry point.
type LaunchError struct {
	Reason string
}

func (e *LaunchError) Error() string {
	return "resolve launch: " + e.Reason
}

// FindResource returns the resource with the given identifier.
func (m *Manifest) FindResource(identifier string) (Resource, bool) {
	for _, res := range m.Resources.Resources {
		if res.Identifier == identifier {
			return res, true
		}
	}
	return Resource{}, false
}

package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Parse decodes manifest markup into a Manifest tree. It fails with
// *ParseError when the markup is not well-formed or the root element is not
// <manifest>.
func Parse(data []byte) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Err: fmt.Errorf("empty document")}
	}
	var m Manifest
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &m, nil
}

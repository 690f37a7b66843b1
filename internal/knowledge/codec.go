package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// document is the YAML layout of an external knowledge table:
//
//	entries:
//	  - id: ossd
//	    keywords: [ossd, ontario, canadian]
//	    answer: |
//	      **OSSD** is ...
//	  - id: greeting
//	    generic: true
//	    ...
type document struct {
	Entries []Entry `yaml:"entries"`
}

// Decode parses a YAML knowledge table. Unknown fields are rejected so
// typos such as "keyword:" do not silently produce empty entries.
func Decode(data []byte) (*Base, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("knowledge: document is empty")
		}
		return nil, fmt.Errorf("knowledge: decode yaml: %w", err)
	}
	return New(doc.Entries)
}

// Encode writes b as YAML in the layout Decode accepts.
func Encode(w io.Writer, b *Base) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Entries: b.Entries()}); err != nil {
		return fmt.Errorf("knowledge: encode yaml: %w", err)
	}
	return enc.Close()
}

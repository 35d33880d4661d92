package dictionary

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes the native dictionary format:
//
//	name: sales
//	streams:
//	  - namespace: dbo
//	    name: Orders
//	    fields:
//	      - name: id
//	        type: int
//	        primaryKey: true
//	      - name: total
//	        type: decimal(10,2)?
//
// Unknown keys are rejected so typos do not silently drop fields.
func ParseYAML(data []byte) (*Dictionary, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var d Dictionary
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}
	return &d, nil
}

// MarshalYAML encodes d in the native format.
func MarshalYAML(d *Dictionary) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

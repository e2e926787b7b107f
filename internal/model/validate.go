package model

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed resume.schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// ValidateJSON validates raw resume content against resume.schema.json.
func ValidateJSON(raw []byte) error {
	return validate(gojsonschema.NewBytesLoader(raw))
}

// ValidateMap validates a generic map against resume.schema.json.
func ValidateMap(m map[string]interface{}) error {
	return validate(gojsonschema.NewGoLoader(m))
}

func validate(doc gojsonschema.JSONLoader) error {
	res, err := gojsonschema.Validate(schemaLoader, doc)
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

// Decode validates raw content and unmarshals it into a Resume with
// non-nil collections.
func Decode(raw []byte) (Resume, error) {
	if err := ValidateJSON(raw); err != nil {
		return Resume{}, err
	}
	r := Empty()
	if err := json.Unmarshal(raw, &r); err != nil {
		return Resume{}, err
	}
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	if r.Skills == nil {
		r.Skills = []Skill{}
	}
	if r.Languages == nil {
		r.Languages = []Language{}
	}
	if r.Certifications == nil {
		r.Certifications = []string{}
	}
	return r, nil
}

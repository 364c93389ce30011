package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cwp_reporting/src/entity"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of config.yaml
type YAMLConfig struct {
	EntitySets map[string]string `yaml:"entity_sets"`
}

// DefaultSchema maps every kind to the entity set name of a standard
// deployment.
func DefaultSchema() map[entity.Kind]string {
	return map[entity.Kind]string{
		entity.People:           "cwp_people",
		entity.DiversionPlan:    "cwp_diversion_plan",
		entity.WorksitePlan:     "cwp_worksite_plan",
		entity.Worksite:         "cwp_worksite",
		entity.Appointment:      "cwp_appointment",
		entity.CheckIn:          "cwp_check_ins",
		entity.ProgramOutcome:   "cwp_program_outcome",
		entity.EnrollmentStatus: "cwp_enrollment_status",
		entity.ChargeEvent:      "cwp_charge_event",
		entity.ArrestCharge:     "cwp_arrest_charge_list",
		entity.CourtCharge:      "cwp_court_charge_list",
		entity.CourtCase:        "cwp_court_case",
		entity.Infraction:       "cwp_infractions",
	}
}

// LoadSchema reads entity set names from path and merges them over
// DefaultSchema. An empty path or a missing file yields the defaults.
func LoadSchema(path string) (map[entity.Kind]string, error) {
	schema := DefaultSchema()
	if path == "" {
		return schema, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return schema, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config YAMLConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	known := make(map[entity.Kind]bool, len(schema))
	for kind := range schema {
		known[kind] = true
	}
	for name, set := range config.EntitySets {
		kind := entity.Kind(name)
		if !known[kind] {
			return nil, fmt.Errorf("unknown entity kind %q in %s", name, path)
		}
		if set == "" {
			return nil, fmt.Errorf("empty entity set name for %q in %s", name, path)
		}
		schema[kind] = set
	}
	return schema, nil
}

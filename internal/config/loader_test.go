package config

import (
	"os"
	"path/filepath"
	"testing"

	"cwp_reporting/src/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultSchemaCoversEveryKind(t *testing.T) {
	schema := DefaultSchema()
	for _, kind := range entity.Kinds() {
		assert.NotEmpty(t, schema[kind], kind)
	}
}

func TestLoadSchemaDefaults(t *testing.T) {
	schema, err := LoadSchema("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchema(), schema)

	schema, err = LoadSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSchema(), schema)
}

func TestLoadSchemaOverrides(t *testing.T) {
	path := writeYAML(t, `
entity_sets:
  people: county_people
  check_in: county_check_ins
`)

	schema, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, "county_people", schema[entity.People])
	assert.Equal(t, "county_check_ins", schema[entity.CheckIn])
	assert.Equal(t, DefaultSchema()[entity.Worksite], schema[entity.Worksite])
}

func TestLoadSchemaErrors(t *testing.T) {
	_, err := LoadSchema(writeYAML(t, "entity_sets: [not, a, map]"))
	require.Error(t, err)

	_, err = LoadSchema(writeYAML(t, "entity_sets:\n  spaceships: ships\n"))
	require.ErrorContains(t, err, "spaceships")

	_, err = LoadSchema(writeYAML(t, "entity_sets:\n  people: \"\"\n"))
	require.Error(t, err)
}

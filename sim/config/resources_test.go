package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "resources.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp yaml: %v", err)
	}
	return path
}

func TestLoadResources_ParsesKnownShape(t *testing.T) {
	path := writeTempYAML(t, `
resources:
  - name: host-0
    speed: 1000
    cores: 4
    memory: 8192
  - name: host-1
    speed: 2000
    cores: 8
    memory: 16384
`)
	rf, err := LoadResources(path)
	require.NoError(t, err)
	require.Len(t, rf.Resources, 2)

	assert.Equal(t, "host-0", rf.Resources[0].Name)
	assert.EqualValues(t, 1000, rf.Resources[0].Speed)
	assert.EqualValues(t, 4, rf.Resources[0].Cores)
	assert.EqualValues(t, 8192, rf.Resources[0].Memory)

	caps := rf.HostCapacities()
	assert.EqualValues(t, 8, caps["host-1"].Cores)
	assert.EqualValues(t, 16384, caps["host-1"].MemoryBytes)
}

func TestLoadResources_RejectsUnknownField(t *testing.T) {
	path := writeTempYAML(t, `
resources:
  - name: host-0
    speed: 1000
    cores: 4
    memory: 8192
    gpu: 1
`)
	_, err := LoadResources(path)
	assert.Error(t, err)
}

func TestLoadResources_RejectsMissingField(t *testing.T) {
	path := writeTempYAML(t, `
resources:
  - name: host-0
    speed: 1000
    cores: 4
`)
	_, err := LoadResources(path)
	assert.Error(t, err)
}

func TestLoadResources_RejectsDuplicateName(t *testing.T) {
	path := writeTempYAML(t, `
resources:
  - name: host-0
    speed: 1000
    cores: 4
    memory: 8192
  - name: host-0
    speed: 1000
    cores: 4
    memory: 8192
`)
	_, err := LoadResources(path)
	assert.Error(t, err)
}

func TestLoadResources_MissingFileIsAnError(t *testing.T) {
	_, err := LoadResources("/nonexistent/resources.yaml")
	assert.Error(t, err)
}

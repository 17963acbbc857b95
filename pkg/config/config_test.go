package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "docs")
	s := sample{Count: 3}
	require.NoError(t, Load(writeFile(t, "name: ${SAMPLE_NAME}\n"), &s))
	assert.Equal(t, sample{Name: "docs", Count: 3}, s)
}

func TestLoadValidates(t *testing.T) {
	var s sample
	err := Load(writeFile(t, "count: -1\n"), &s)
	assert.ErrorContains(t, err, "count must not be negative")
}

func TestLoadErrors(t *testing.T) {
	var s sample
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.yaml"), &s))
	assert.Error(t, Load(writeFile(t, "name: [unterminated\n"), &s))
}

func TestLoadIfExists(t *testing.T) {
	s := sample{Name: "default"}
	found, err := LoadIfExists(filepath.Join(t.TempDir(), "missing.yaml"), &s)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "default", s.Name)

	bad := sample{Count: -5}
	_, err = LoadIfExists(filepath.Join(t.TempDir(), "missing.yaml"), &bad)
	assert.Error(t, err, "defaults are still validated")

	found, err = LoadIfExists(writeFile(t, "name: file\n"), &s)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "file", s.Name)
}

func TestMustLoadPanics(t *testing.T) {
	var s sample
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml"), &s) })
}

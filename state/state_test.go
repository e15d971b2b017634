package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	s := New()
	assert.Equal(t, "/", s.Cwd)
	assert.Equal(t, int32(0), s.ExitCode)
	assert.Empty(t, s.Stdout)
	assert.Empty(t, s.Stderr)
	assert.Contains(t, s.Filesystem, "/")
}

func TestEnvironmentVariables(t *testing.T) {
	s := New()
	s.SetEnv("RASH_VERSION", "1.0.0")
	v, ok := s.GetEnv("RASH_VERSION")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", v)

	_, ok = s.GetEnv("NONEXISTENT")
	assert.False(t, ok)
}

func TestChangeDirectory(t *testing.T) {
	s := TestState()

	require.NoError(t, s.ChangeDirectory("/tmp"))
	assert.Equal(t, "/tmp", s.Cwd)
	assert.Equal(t, int32(0), s.ExitCode)

	err := s.ChangeDirectory("/nonexistent")
	assert.Error(t, err)
	assert.Equal(t, "/tmp", s.Cwd, "cwd must not change on failure")
	assert.Equal(t, int32(1), s.ExitCode)
	assert.NotEmpty(t, s.Stderr)
}

func TestCreateDirectory(t *testing.T) {
	s := New()

	require.NoError(t, s.CreateDirectory("/opt/rash/bin"))
	assert.Contains(t, s.Filesystem, "/opt")
	assert.Contains(t, s.Filesystem, "/opt/rash")
	assert.Contains(t, s.Filesystem, "/opt/rash/bin")
	assert.Equal(t, int32(0), s.ExitCode)
}

func TestCreateDirectoryOverFileFails(t *testing.T) {
	s := New()
	s.WriteFile("/opt", "not a directory")

	err := s.CreateDirectory("/opt/rash")
	assert.Error(t, err)
	assert.Equal(t, int32(1), s.ExitCode)
}

func TestStateEquivalence(t *testing.T) {
	s1 := TestState()
	s2 := TestState()
	assert.True(t, s1.IsEquivalent(s2))

	s1.SetEnv("VAR", "value")
	assert.False(t, s1.IsEquivalent(s2))

	s2.SetEnv("VAR", "value")
	assert.True(t, s1.IsEquivalent(s2))

	s1.WriteStdout("Hello")
	assert.False(t, s1.IsEquivalent(s2))
}

func TestRemoveEntryIsIdempotent(t *testing.T) {
	s := New()
	require.NoError(t, s.RemoveEntry("/never-existed"))
	require.NoError(t, s.CreateDirectory("/a"))
	require.NoError(t, s.RemoveEntry("/a"))
	assert.NotContains(t, s.Filesystem, "/a")
}

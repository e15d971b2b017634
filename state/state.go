// Package state implements the abstract machine used to state and
// check semantic equivalence between a restricted-Rust program and its
// emitted POSIX shell translation (§3.4, §4.10).
package state

import (
	"fmt"
	"path"
	"strings"
)

// FileSystemEntry is one node of the abstract filesystem: either a
// directory or a text file with content.
type FileSystemEntry interface {
	fsEntry()
}

// Directory marks a path as a directory.
type Directory struct{}

func (Directory) fsEntry() {}

// File holds a path's simulated text content.
type File struct{ Content string }

func (File) fsEntry() {}

// AbstractState is the full machine state both evaluators operate over
// (§3.4): environment, working directory, output buffers, exit code,
// and a simulated filesystem.
type AbstractState struct {
	Env        map[string]string
	Cwd        string
	Stdout     []string
	Stderr     []string
	ExitCode   int32
	Filesystem map[string]FileSystemEntry
}

// New returns a state rooted at "/" with no other content.
func New() *AbstractState {
	return &AbstractState{
		Env:        map[string]string{},
		Cwd:        "/",
		Filesystem: map[string]FileSystemEntry{"/": Directory{}},
	}
}

// TestState seeds a state with the directories and variables most
// purified scripts assume are present.
func TestState() *AbstractState {
	s := New()
	s.Filesystem["/tmp"] = Directory{}
	s.Filesystem["/home"] = Directory{}
	s.Filesystem["/opt"] = Directory{}
	s.SetEnv("PATH", "/usr/bin:/bin")
	s.SetEnv("HOME", "/home/user")
	return s
}

// SetEnv assigns an environment variable.
func (s *AbstractState) SetEnv(name, value string) {
	s.Env[name] = value
}

// GetEnv looks up an environment variable.
func (s *AbstractState) GetEnv(name string) (string, bool) {
	v, ok := s.Env[name]
	return v, ok
}

// ChangeDirectory implements `cd PATH`: it fails if the path doesn't
// exist or isn't a directory, matching POSIX cd's exit-status contract.
func (s *AbstractState) ChangeDirectory(p string) error {
	p = normalizePath(s.Cwd, p)
	switch entry := s.Filesystem[p].(type) {
	case Directory:
		s.Cwd = p
		s.ExitCode = 0
		return nil
	case File:
		_ = entry
		s.Stderr = append(s.Stderr, fmt.Sprintf("cd: %s: Not a directory", p))
		s.ExitCode = 1
		return fmt.Errorf("not a directory: %s", p)
	default:
		s.Stderr = append(s.Stderr, fmt.Sprintf("cd: %s: No such file or directory", p))
		s.ExitCode = 1
		return fmt.Errorf("no such file or directory: %s", p)
	}
}

// CreateDirectory implements `mkdir -p PATH`: every path component is
// created if absent; an existing file at any component is an error.
func (s *AbstractState) CreateDirectory(p string) error {
	p = normalizePath(s.Cwd, p)
	parts := strings.Split(strings.Trim(p, "/"), "/")
	current := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		current += "/" + part
		switch s.Filesystem[current].(type) {
		case nil:
			s.Filesystem[current] = Directory{}
		case File:
			s.Stderr = append(s.Stderr, fmt.Sprintf("mkdir: cannot create directory '%s': File exists", current))
			s.ExitCode = 1
			return fmt.Errorf("file exists: %s", current)
		}
	}
	s.ExitCode = 0
	return nil
}

// RemoveEntry implements `rm -f PATH`: removing an absent path is not
// an error, matching -f's whole point.
func (s *AbstractState) RemoveEntry(p string) error {
	p = normalizePath(s.Cwd, p)
	delete(s.Filesystem, p)
	s.ExitCode = 0
	return nil
}

// WriteFile sets or overwrites a file's simulated content.
func (s *AbstractState) WriteFile(p, content string) {
	p = normalizePath(s.Cwd, p)
	s.Filesystem[p] = File{Content: content}
}

// WriteStdout appends one line to the stdout buffer.
func (s *AbstractState) WriteStdout(content string) {
	s.Stdout = append(s.Stdout, content)
	s.ExitCode = 0
}

// WriteStderr appends one line to the stderr buffer.
func (s *AbstractState) WriteStderr(content string) {
	s.Stderr = append(s.Stderr, content)
}

// Clone returns a deep-enough copy for branching evaluation (If/loops)
// without aliasing the maps and slices of the original.
func (s *AbstractState) Clone() *AbstractState {
	c := &AbstractState{
		Env:        make(map[string]string, len(s.Env)),
		Cwd:        s.Cwd,
		ExitCode:   s.ExitCode,
		Filesystem: make(map[string]FileSystemEntry, len(s.Filesystem)),
	}
	for k, v := range s.Env {
		c.Env[k] = v
	}
	for k, v := range s.Filesystem {
		c.Filesystem[k] = v
	}
	c.Stdout = append(c.Stdout, s.Stdout...)
	c.Stderr = append(c.Stderr, s.Stderr...)
	return c
}

// IsEquivalent reports whether two states agree on every observable
// field: env, cwd, exit code, filesystem, and both output buffers in
// order (§3.4).
func (s *AbstractState) IsEquivalent(other *AbstractState) bool {
	if s.Cwd != other.Cwd || s.ExitCode != other.ExitCode {
		return false
	}
	if !stringMapEqual(s.Env, other.Env) {
		return false
	}
	if !stringSliceEqual(s.Stdout, other.Stdout) || !stringSliceEqual(s.Stderr, other.Stderr) {
		return false
	}
	if len(s.Filesystem) != len(other.Filesystem) {
		return false
	}
	for k, v := range s.Filesystem {
		ov, ok := other.Filesystem[k]
		if !ok || !fsEntryEqual(v, ov) {
			return false
		}
	}
	return true
}

func fsEntryEqual(a, b FileSystemEntry) bool {
	switch av := a.(type) {
	case Directory:
		_, ok := b.(Directory)
		return ok
	case File:
		bv, ok := b.(File)
		return ok && av.Content == bv.Content
	default:
		return false
	}
}

func stringMapEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func normalizePath(cwd, p string) string {
	if p == "" {
		return cwd
	}
	if !strings.HasPrefix(p, "/") {
		p = path.Join(cwd, p)
	}
	return path.Clean(p)
}

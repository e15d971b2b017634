// Package lint runs pure, source-kind-dispatched rules over shell,
// Makefile, Dockerfile, launchd-plist, and systemd-unit-like text and
// collects their diagnostics (§3.5, §4.7), grounded on the Rust
// original's linter/rules/*.rs one-rule-per-file shape.
package lint

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Severity classifies a diagnostic's urgency (§3.5).
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Span is a 1-indexed, byte-exact source range (§3.5, §4.7).
type Span struct {
	StartLine, StartCol, EndLine, EndCol int
}

// NewSpan builds a single-line span running from startCol to endCol.
func NewSpan(line, startCol, endCol int) Span {
	return Span{StartLine: line, StartCol: startCol, EndLine: line, EndCol: endCol}
}

// Fix is a suggested literal replacement for the diagnostic's span.
type Fix struct {
	Replacement string
}

// Diagnostic is a single rule hit.
type Diagnostic struct {
	Code     string
	Severity Severity
	Message  string
	Span     Span
	Fix      *Fix
}

// WithFix attaches a fix and returns the diagnostic for chaining.
func (d Diagnostic) WithFix(replacement string) Diagnostic {
	d.Fix = &Fix{Replacement: replacement}
	return d
}

// FormatWithPath renders the diagnostic in the human-readable CLI format from
// §6.3: `path:line:col: severity: code: message`. path is supplied by
// the caller since a Diagnostic carries no file identity of its own.
func (d Diagnostic) FormatWithPath(path string) string {
	return fmt.Sprintf("%s:%d:%d: %s: %s: %s", path, d.Span.StartLine, d.Span.StartCol, d.Severity, d.Code, d.Message)
}

// severityColor maps a Severity to its display color for Render.
func severityColor(s Severity) *color.Color {
	switch s {
	case Error:
		return color.New(color.FgRed, color.Bold)
	case Warning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

// Render formats the diagnostic the way FormatWithPath does, but with
// the severity label colored per its urgency — the CLI-facing
// counterpart to FormatWithPath's plain text, implemented at the core
// boundary since severity-to-color is a core concern (§1 DOMAIN STACK).
func (d Diagnostic) Render(path string) string {
	label := severityColor(d.Severity).Sprint(d.Severity.String())
	return fmt.Sprintf("%s:%d:%d: %s: %s: %s", path, d.Span.StartLine, d.Span.StartCol, label, d.Code, d.Message)
}

// LintResult collects the diagnostics from one or more rules.
type LintResult struct {
	Diagnostics []Diagnostic
}

// Add appends a diagnostic.
func (r *LintResult) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// Merge appends another result's diagnostics.
func (r *LintResult) Merge(other LintResult) {
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// HasErrors reports whether any diagnostic is Error severity.
func (r LintResult) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// ArtifactKind selects which rule set a source body is dispatched
// against (§6.1's `lint(source, kind, profile)`).
type ArtifactKind int

const (
	KindShell ArtifactKind = iota
	KindMakefile
	KindDockerfile
	KindSystemdUnit
	KindLaunchdPlist
)

// LintProfile selects which severities are reported; Minimal skips
// Info-level rule hits, Strict and Full report everything.
type LintProfile int

const (
	ProfileMinimal LintProfile = iota
	ProfileStrict
	ProfileFull
)

func (p LintProfile) String() string {
	switch p {
	case ProfileMinimal:
		return "minimal"
	case ProfileStrict:
		return "strict"
	case ProfileFull:
		return "full"
	default:
		return "unknown"
	}
}

// MarshalYAML and UnmarshalYAML let an out-of-scope CLI adapter decode
// a LintProfile directly out of a YAML config file's "minimal"/
// "strict"/"full" string, with no translation layer in between.
func (p LintProfile) MarshalYAML() (any, error) {
	return p.String(), nil
}

func (p *LintProfile) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "minimal":
		*p = ProfileMinimal
	case "strict":
		*p = ProfileStrict
	case "full":
		*p = ProfileFull
	default:
		return fmt.Errorf("lint: unknown profile %q", s)
	}
	return nil
}

// Rule is a pure function from source text to the diagnostics it
// finds. Rules share no mutable state and may run concurrently
// (§5, "Purifier/linter rule set: rules are pure functions... may be
// executed in parallel").
type Rule struct {
	Code string
	Kind ArtifactKind
	Func func(source string) LintResult
}

// registry lists every known rule, grouped by the artifact kind it
// applies to.
var registry = []Rule{
	{Code: "SC2086", Kind: KindShell, Func: CheckSC2086},
	{Code: "SC2066", Kind: KindShell, Func: CheckSC2066},
	{Code: "SC2209", Kind: KindShell, Func: CheckSC2209},
	{Code: "SEC001", Kind: KindShell, Func: CheckSEC001},
	{Code: "SEC002", Kind: KindShell, Func: CheckSEC002},
	{Code: "SEC004", Kind: KindShell, Func: CheckSEC004},
	{Code: "SEC008", Kind: KindShell, Func: CheckSEC008},
	{Code: "SEC009", Kind: KindShell, Func: CheckSEC009},
	{Code: "SEC017", Kind: KindShell, Func: CheckSEC017},
	{Code: "BASH002", Kind: KindShell, Func: CheckBASH002},
	{Code: "BASH006", Kind: KindShell, Func: CheckBASH006},
	{Code: "BASH007", Kind: KindShell, Func: CheckBASH007},
	{Code: "BASH008", Kind: KindShell, Func: CheckBASH008},
	{Code: "MAKE003", Kind: KindMakefile, Func: CheckMAKE003},
	{Code: "MAKE006", Kind: KindMakefile, Func: CheckMAKE006},
	{Code: "MAKE018", Kind: KindMakefile, Func: CheckMAKE018},
	{Code: "DOCKER010", Kind: KindDockerfile, Func: CheckDOCKER010},
	{Code: "LAUNCHD001", Kind: KindLaunchdPlist, Func: CheckLAUNCHD001},
	{Code: "SIGNAL001", Kind: KindShell, Func: CheckSIGNAL001},
}

// Lint dispatches source to every rule registered for kind and runs
// them concurrently via errgroup, merging their diagnostics. profile
// filters the merged result by minimum severity.
func Lint(source string, kind ArtifactKind, profile LintProfile) (LintResult, error) {
	var applicable []Rule
	for _, r := range registry {
		if r.Kind == kind {
			applicable = append(applicable, r)
		}
	}

	results := make([]LintResult, len(applicable))
	g, _ := errgroup.WithContext(context.Background())
	for i, r := range applicable {
		i, r := i, r
		g.Go(func() error {
			results[i] = r.Func(source)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return LintResult{}, err
	}

	var merged LintResult
	for _, res := range results {
		merged.Merge(res)
	}
	return filterByProfile(merged, profile), nil
}

func filterByProfile(r LintResult, profile LintProfile) LintResult {
	if profile == ProfileFull {
		return r
	}
	var out LintResult
	for _, d := range r.Diagnostics {
		if profile == ProfileMinimal && d.Severity == Info {
			continue
		}
		out.Add(d)
	}
	return out
}

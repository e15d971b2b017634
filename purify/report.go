// Package purify rewrites a bash AST into a deterministic, idempotent
// form and reports what it changed (§4.3), grounded on the Rust
// original's command.rs/expressions.rs purification rules.
package purify

// Options controls which purification passes run, mirroring the Rust
// original's PurificationOptions.
type Options struct {
	RemoveNonDeterministic bool
	StrictIdempotency      bool
	TrackSideEffects       bool
	TypeCheck              bool
	EmitGuards             bool
	TypeStrict             bool
}

// DefaultOptions returns the options a plain `purify` invocation uses:
// determinism and idempotency fixes applied, side effects noted, no
// strict failure on non-determinism.
func DefaultOptions() Options {
	return Options{
		RemoveNonDeterministic: true,
		TrackSideEffects:       true,
	}
}

// Report collects every fix, warning, and side-effect note a
// purification pass produced.
type Report struct {
	DeterminismFixes     []string
	IdempotencyFixes     []string
	Warnings             []string
	SideEffectsIsolated  []string
}

func (r *Report) addDeterminismFix(msg string) { r.DeterminismFixes = append(r.DeterminismFixes, msg) }
func (r *Report) addIdempotencyFix(msg string)  { r.IdempotencyFixes = append(r.IdempotencyFixes, msg) }
func (r *Report) addWarning(msg string)         { r.Warnings = append(r.Warnings, msg) }
func (r *Report) addSideEffect(msg string)      { r.SideEffectsIsolated = append(r.SideEffectsIsolated, msg) }

// IsClean reports whether the purifier made no changes at all.
func (r *Report) IsClean() bool {
	return len(r.DeterminismFixes) == 0 && len(r.IdempotencyFixes) == 0 &&
		len(r.Warnings) == 0 && len(r.SideEffectsIsolated) == 0
}

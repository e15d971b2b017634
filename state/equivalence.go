package state

import "github.com/paiml/bashrs-sub011/ir"

// CheckEquivalence runs eval_rash over node and eval_posix over
// emitted from the same starting state and reports whether the two
// resulting states are equivalent — the proof obligation of §4.10:
// eval_rash(ast, s) ≡ eval_posix(emit(ast), s) for every valid ast in
// the tiny subset.
func CheckEquivalence(node ir.ShellIR, emitted string, start *AbstractState) (bool, error) {
	rashState, err := EvalRash(node, start.Clone())
	if err != nil {
		return false, err
	}
	posixState, err := EvalPosix(emitted, start.Clone())
	if err != nil {
		return false, err
	}
	return rashState.IsEquivalent(posixState), nil
}

package lint

import (
	"fmt"
	"sort"
	"strings"
)

var sharedStatePatterns = []string{
	"/usr/bin", "/usr/local/bin", "/usr/lib", "/usr/local/lib", "/etc", "/var", "/tmp",
}

func hasNotParallel(source string) bool {
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == ".NOTPARALLEL:" || trimmed == ".NOTPARALLEL" {
			return true
		}
	}
	return false
}

type make018TargetState struct {
	name        string
	sharedPaths []string
}

func collectTargetsWithSharedState(source string) []make018TargetState {
	var targets []make018TargetState
	lines := strings.Split(source, "\n")
	i := 0

	for i < len(lines) {
		line := lines[i]
		if strings.Contains(line, ":") && !startsWithWhitespace(line) && !strings.HasPrefix(strings.TrimSpace(line), "#") {
			colonPos := strings.Index(line, ":")
			targetName := strings.TrimSpace(line[:colonPos])
			if strings.HasPrefix(targetName, ".") {
				i++
				continue
			}

			var sharedPaths []string
			j := i + 1
			for j < len(lines) {
				recipe := lines[j]
				if !strings.HasPrefix(recipe, "\t") {
					break
				}
				for _, pattern := range sharedStatePatterns {
					if strings.Contains(recipe, pattern) {
						sharedPaths = append(sharedPaths, pattern)
					}
				}
				j++
			}

			if len(sharedPaths) > 0 {
				targets = append(targets, make018TargetState{name: targetName, sharedPaths: sharedPaths})
			}
			i = j
			continue
		}
		i++
	}

	return targets
}

func startsWithWhitespace(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}

func findParallelConflicts(targets []make018TargetState) []string {
	pathToTargets := map[string][]string{}
	for _, t := range targets {
		for _, p := range t.sharedPaths {
			pathToTargets[p] = append(pathToTargets[p], t.name)
		}
	}
	conflictSet := map[string]bool{}
	for path, writers := range pathToTargets {
		if len(writers) > 1 {
			conflictSet[path] = true
		}
	}
	var conflicts []string
	for p := range conflictSet {
		conflicts = append(conflicts, p)
	}
	sort.Strings(conflicts)
	return conflicts
}

// CheckMAKE018 flags Makefiles where more than one target writes to
// the same shared filesystem path without a `.NOTPARALLEL:` guard,
// a race under `make -j` (§4.7).
func CheckMAKE018(source string) LintResult {
	var result LintResult

	if strings.TrimSpace(source) == "" {
		return result
	}
	if hasNotParallel(source) {
		return result
	}

	targets := collectTargetsWithSharedState(source)
	conflicts := findParallelConflicts(targets)
	if len(conflicts) == 0 {
		return result
	}

	result.Add(Diagnostic{
		Code:     "MAKE018",
		Severity: Warning,
		Message:  fmt.Sprintf("Multiple targets write to shared state - parallel-unsafe (conflicts: %s)", strings.Join(conflicts, ", ")),
		Span:     NewSpan(1, 1, 1),
	}.WithFix(".NOTPARALLEL:\n\n" + source))

	return result
}

package lint

import (
	"fmt"
	"sort"
	"strings"
)

var sourceFileExtensions = []string{".c", ".cpp", ".cc", ".h", ".hpp", ".rs", ".go"}

func findPhonyTargets(source string) map[string]bool {
	phony := map[string]bool{}
	for _, line := range strings.Split(source, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), ".PHONY:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				for _, t := range strings.Fields(parts[1]) {
					phony[t] = true
				}
			}
		}
	}
	return phony
}

func shouldSkipTargetLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" ||
		strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, ".") ||
		!strings.Contains(line, ":") ||
		strings.Contains(line, "=")
}

func extractSourceFiles(recipe string, files map[string]bool) {
	for _, word := range strings.Fields(recipe) {
		for _, ext := range sourceFileExtensions {
			if strings.HasSuffix(word, ext) {
				files[strings.TrimLeft(word, "-")] = true
			}
		}
	}
}

type make006TargetInfo struct {
	name         string
	declaredDeps map[string]bool
}

func parseTargetLine(lines []string, lineIdx int, phonyTargets map[string]bool) (*make006TargetInfo, int, bool) {
	line := lines[lineIdx]
	if shouldSkipTargetLine(line) {
		return nil, 0, false
	}
	colonPos := strings.Index(line, ":")
	if colonPos < 0 {
		return nil, 0, false
	}
	if strings.HasPrefix(line, "\t") {
		return nil, 0, false
	}
	target := strings.TrimSpace(line[:colonPos])
	if phonyTargets[target] {
		return nil, 0, false
	}
	declaredDeps := map[string]bool{}
	for _, d := range strings.Fields(line[colonPos+1:]) {
		declaredDeps[d] = true
	}
	return &make006TargetInfo{name: target, declaredDeps: declaredDeps}, lineIdx + 1, true
}

func sortedKeysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func checkTargetDependencies(info *make006TargetInfo, lines []string, startIdx int) *Diagnostic {
	sourceFiles := map[string]bool{}
	i := startIdx + 1
	for i < len(lines) && strings.HasPrefix(lines[i], "\t") {
		extractSourceFiles(lines[i], sourceFiles)
		i++
	}

	var missing []string
	for f := range sourceFiles {
		if !info.declaredDeps[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)

	allDeps := map[string]bool{}
	for d := range info.declaredDeps {
		allDeps[d] = true
	}
	for _, d := range missing {
		allDeps[d] = true
	}
	fixReplacement := fmt.Sprintf("%s: %s", info.name, strings.Join(sortedKeysOf(allDeps), " "))

	d := Diagnostic{
		Code:     "MAKE006",
		Severity: Warning,
		Message:  fmt.Sprintf("Target '%s' may be missing dependencies: %s", info.name, strings.Join(missing, ", ")),
		Span:     NewSpan(startIdx+1, 1, len(info.name)+1),
	}.WithFix(fixReplacement)
	return &d
}

// CheckMAKE006 flags targets whose recipe compiles source files that
// are not listed among the target's declared prerequisites (§4.7).
func CheckMAKE006(source string) LintResult {
	var result LintResult

	phonyTargets := findPhonyTargets(source)
	lines := strings.Split(source, "\n")

	i := 0
	for i < len(lines) {
		info, next, ok := parseTargetLine(lines, i, phonyTargets)
		if !ok {
			i++
			continue
		}
		if diag := checkTargetDependencies(info, lines, i); diag != nil {
			result.Add(*diag)
		}
		i = next
	}

	return result
}

package lint

import "strings"

type healthcheckAnalysis struct {
	hasHealthcheck     bool
	hasCmdOrEntrypoint bool
	healthcheckLine    int
	cmdLine            int
	isHealthcheckNone  bool
	intervalSeconds    *uint32
	timeoutSeconds     *uint32
	retries            *uint32
}

func isHealthcheckLine(line string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "HEALTHCHECK ")
}

func isHealthcheckNoneLine(line string) bool {
	return strings.Contains(strings.ToUpper(strings.TrimSpace(line)), "HEALTHCHECK") &&
		strings.Contains(strings.ToUpper(line), " NONE")
}

func isCmdOrEntrypointLine(line string) bool {
	upper := strings.ToUpper(strings.TrimSpace(line))
	return strings.HasPrefix(upper, "CMD ") || strings.HasPrefix(upper, "ENTRYPOINT ")
}

func extractDurationSeconds(line, option string) *uint32 {
	start := strings.Index(line, option)
	if start < 0 {
		return nil
	}
	rest := line[start+len(option):]
	digits := ""
	for _, c := range rest {
		if c < '0' || c > '9' {
			break
		}
		digits += string(c)
	}
	if digits == "" {
		return nil
	}
	var v uint32
	for _, c := range digits {
		v = v*10 + uint32(c-'0')
	}
	return &v
}

func isIntervalTooAggressive(seconds uint32) bool { return seconds < 5 }
func isTimeoutTooShort(seconds uint32) bool        { return seconds < 1 }
func isRetriesTooLow(retries uint32) bool          { return retries < 1 }
func isHealthcheckAfterCmd(healthcheckLine, cmdLine int) bool {
	return healthcheckLine > cmdLine && cmdLine > 0
}

func analyzeDockerfile(source string) healthcheckAnalysis {
	var a healthcheckAnalysis
	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1
		if isHealthcheckLine(line) {
			a.hasHealthcheck = true
			a.healthcheckLine = lineNum
			a.isHealthcheckNone = isHealthcheckNoneLine(line)
			a.intervalSeconds = extractDurationSeconds(line, "--interval=")
			a.timeoutSeconds = extractDurationSeconds(line, "--timeout=")
			a.retries = extractDurationSeconds(line, "--retries=")
		}
		if isCmdOrEntrypointLine(line) {
			a.hasCmdOrEntrypoint = true
			a.cmdLine = lineNum
		}
	}
	return a
}

// CheckDOCKER010 validates HEALTHCHECK presence, placement before
// CMD/ENTRYPOINT, and sane interval/timeout/retries bounds (§4.7).
func CheckDOCKER010(source string) LintResult {
	var result LintResult

	a := analyzeDockerfile(source)

	if a.hasCmdOrEntrypoint && !a.hasHealthcheck {
		result.Add(Diagnostic{
			Code:     "DOCKER010",
			Severity: Info,
			Message:  "No HEALTHCHECK instruction - consider adding one so orchestrators can detect an unhealthy container",
			Span:     NewSpan(a.cmdLine, 1, 1),
		})
		return result
	}

	if !a.hasHealthcheck || a.isHealthcheckNone {
		return result
	}

	if a.intervalSeconds != nil && isIntervalTooAggressive(*a.intervalSeconds) {
		result.Add(Diagnostic{
			Code:     "DOCKER010",
			Severity: Warning,
			Message:  "HEALTHCHECK --interval is too aggressive (< 5s) - may overload the container",
			Span:     NewSpan(a.healthcheckLine, 1, 1),
		})
	}
	if a.timeoutSeconds != nil && isTimeoutTooShort(*a.timeoutSeconds) {
		result.Add(Diagnostic{
			Code:     "DOCKER010",
			Severity: Warning,
			Message:  "HEALTHCHECK --timeout is too short (< 1s)",
			Span:     NewSpan(a.healthcheckLine, 1, 1),
		})
	}
	if a.retries != nil && isRetriesTooLow(*a.retries) {
		result.Add(Diagnostic{
			Code:     "DOCKER010",
			Severity: Warning,
			Message:  "HEALTHCHECK --retries is too low (< 1)",
			Span:     NewSpan(a.healthcheckLine, 1, 1),
		})
	}
	if isHealthcheckAfterCmd(a.healthcheckLine, a.cmdLine) {
		result.Add(Diagnostic{
			Code:     "DOCKER010",
			Severity: Warning,
			Message:  "HEALTHCHECK should appear before CMD/ENTRYPOINT",
			Span:     NewSpan(a.healthcheckLine, 1, 1),
		})
	}

	return result
}

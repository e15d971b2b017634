package lint

import (
	"fmt"
	"strings"
)

func checkLabelFormat(trimmed string, lineNum int, labelValue *string, result *LintResult) {
	start := strings.Index(trimmed, "<string>")
	if start < 0 {
		return
	}
	end := strings.Index(trimmed, "</string>")
	if end < 0 {
		return
	}
	*labelValue = trimmed[start+len("<string>") : end]
	if !strings.Contains(*labelValue, ".") {
		result.Add(Diagnostic{
			Code:     "LAUNCHD001",
			Severity: Warning,
			Message:  fmt.Sprintf("Label '%s' should use reverse-domain format (e.g., com.example.daemon) (F077)", *labelValue),
			Span:     NewSpan(lineNum, 1, min(len(trimmed), 80)),
		})
	}
}

func emitLaunchdPostChecks(result *LintResult, hasLabel, hasProgram, hasProgramArguments bool, programLine int) {
	if hasProgram && hasProgramArguments {
		result.Add(Diagnostic{
			Code:     "LAUNCHD001",
			Severity: Warning,
			Message:  "Both Program and ProgramArguments specified - use one or the other (F078)",
			Span:     NewSpan(programLine, 1, 80),
		})
	}
	if !hasLabel {
		result.Add(Diagnostic{
			Code:     "LAUNCHD001",
			Severity: Error,
			Message:  "Missing required Label key in plist (F077)",
			Span:     NewSpan(1, 1, 1),
		})
	}
	if !hasProgramArguments && !hasProgram {
		result.Add(Diagnostic{
			Code:     "LAUNCHD001",
			Severity: Error,
			Message:  "Missing required ProgramArguments or Program key (F078)",
			Span:     NewSpan(1, 1, 1),
		})
	}
}

// CheckLAUNCHD001 validates a macOS launchd plist: XML preamble,
// Label reverse-domain format, and exactly one of Program/
// ProgramArguments (§4.7).
func CheckLAUNCHD001(source string) LintResult {
	var result LintResult

	if !strings.Contains(source, "<?xml") && !strings.Contains(source, "<plist") {
		result.Add(Diagnostic{
			Code:     "LAUNCHD001",
			Severity: Error,
			Message:  "Missing plist XML declaration or plist element (F076)",
			Span:     NewSpan(1, 1, 1),
		})
		return result
	}

	hasLabel, hasProgramArguments, hasProgram := false, false, false
	labelValue := ""
	programLine := 0

	for lineIdx, line := range strings.Split(source, "\n") {
		lineNum := lineIdx + 1
		trimmed := strings.TrimSpace(line)

		if strings.Contains(trimmed, "<key>Label</key>") {
			hasLabel = true
		}
		if hasLabel && labelValue == "" && strings.Contains(trimmed, "<string>") {
			checkLabelFormat(trimmed, lineNum, &labelValue, &result)
		}
		if strings.Contains(trimmed, "<key>ProgramArguments</key>") {
			hasProgramArguments = true
		}
		if strings.Contains(trimmed, "<key>Program</key>") {
			hasProgram = true
			programLine = lineNum
		}
		if trimmed == "<string></string>" {
			result.Add(Diagnostic{
				Code:     "LAUNCHD001",
				Severity: Warning,
				Message:  "Empty string value in plist (F076)",
				Span:     NewSpan(lineNum, 1, len(trimmed)),
			})
		}
	}

	emitLaunchdPostChecks(&result, hasLabel, hasProgram, hasProgramArguments, programLine)

	return result
}

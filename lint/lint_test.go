package lint

import (
	"sort"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// applyFix rewrites the source line named by d.Span with d.Fix's
// replacement text, byte-slicing on the diagnostic's own column range.
func applyFix(source string, d Diagnostic) string {
	lines := strings.Split(source, "\n")
	line := lines[d.Span.StartLine-1]
	lines[d.Span.StartLine-1] = line[:d.Span.StartCol-1] + d.Fix.Replacement + line[d.Span.EndCol-1:]
	return strings.Join(lines, "\n")
}

// applyFixes applies every diagnostic's fix to source, rightmost
// column first, so earlier edits never invalidate the column offsets
// of edits still to be applied on the same line.
func applyFixes(source string, diags []Diagnostic) string {
	sorted := append([]Diagnostic(nil), diags...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Span.StartLine != sorted[j].Span.StartLine {
			return sorted[i].Span.StartLine > sorted[j].Span.StartLine
		}
		return sorted[i].Span.StartCol > sorted[j].Span.StartCol
	})
	for _, d := range sorted {
		source = applyFix(source, d)
	}
	return source
}

// S5 from spec.md §8: `ls $FILES` yields one SC2086 Warning with fix `"$FILES"`.
func TestSC2086BasicDetection(t *testing.T) {
	result := CheckSC2086("ls $FILES")
	require.Len(t, result.Diagnostics, 1)
	d := result.Diagnostics[0]
	assert.Equal(t, "SC2086", d.Code)
	assert.Equal(t, Warning, d.Severity)
	require.NotNil(t, d.Fix)
	assert.Equal(t, `"$FILES"`, d.Fix.Replacement)
}

func TestSC2086SkipsArithmeticContext(t *testing.T) {
	result := CheckSC2086("result=$(( $x + $y ))")
	assert.Empty(t, result.Diagnostics)
}

func TestSC2086SkipsAlreadyQuoted(t *testing.T) {
	result := CheckSC2086(`echo "$VAR"`)
	assert.Empty(t, result.Diagnostics)
}

func TestSC2086SkipsComments(t *testing.T) {
	result := CheckSC2086("# has $VAR in comment\necho $ACTUAL")
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].Message, "$ACTUAL")
}

func TestSC2086BracedVariable(t *testing.T) {
	result := CheckSC2086("echo ${VAR}")
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].Message, "${VAR}")
}

func TestSC2066FlagsUnquotedInDoubleBracket(t *testing.T) {
	result := CheckSC2066("if [[ $var == *.txt ]]; then echo y; fi")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "SC2066", result.Diagnostics[0].Code)
}

func TestSC2066SkipsQuoted(t *testing.T) {
	result := CheckSC2066(`if [[ "$var" == *.txt ]]; then echo y; fi`)
	assert.Empty(t, result.Diagnostics)
}

func TestSC2209FlagsMissingCommandSubstitution(t *testing.T) {
	result := CheckSC2209("NOW=date")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "SC2209", result.Diagnostics[0].Code)
}

func TestSC2209SkipsExistingSubstitution(t *testing.T) {
	result := CheckSC2209("NOW=$(date)")
	assert.Empty(t, result.Diagnostics)
}

// S6 from spec.md §8: `eval "$CMD"` yields one SEC001 Error with no fix.
func TestSEC001DetectsStandaloneEval(t *testing.T) {
	result := CheckSEC001(`eval "$CMD"`)
	require.Len(t, result.Diagnostics, 1)
	d := result.Diagnostics[0]
	assert.Equal(t, "SEC001", d.Code)
	assert.Equal(t, Error, d.Severity)
	assert.Nil(t, d.Fix)
}

func TestSEC001SkipsSafeIndirection(t *testing.T) {
	result := CheckSEC001(`val=$(eval "printf '%s' \"\$arr_$i\"")`)
	assert.Empty(t, result.Diagnostics)
}

func TestSEC002FlagsUnquotedVarInDangerousCommand(t *testing.T) {
	result := CheckSEC002("curl $URL")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "SEC002", result.Diagnostics[0].Code)
}

func TestSEC002SkipsQuotedVar(t *testing.T) {
	result := CheckSEC002(`curl "$URL"`)
	assert.Empty(t, result.Diagnostics)
}

func TestSEC004FlagsCurlInsecure(t *testing.T) {
	result := CheckSEC004("curl -k https://example.com")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "SEC004", result.Diagnostics[0].Code)
}

func TestSEC004FlagsWgetNoCheckCertificate(t *testing.T) {
	result := CheckSEC004("wget --no-check-certificate https://example.com/f")
	require.Len(t, result.Diagnostics, 1)
}

func TestSEC008FlagsCurlPipedToShell(t *testing.T) {
	result := CheckSEC008("curl https://install.example.com/script.sh | sh")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, Error, result.Diagnostics[0].Severity)
}

func TestSEC008IgnoresComment(t *testing.T) {
	result := CheckSEC008("# curl https://x | sh")
	assert.Empty(t, result.Diagnostics)
}

func TestSEC009FlagsSQLInjection(t *testing.T) {
	result := CheckSEC009(`mysql -e "SELECT * FROM users WHERE id=$USER_ID"`)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "SEC009", result.Diagnostics[0].Code)
}

func TestSEC017FlagsChmod777AsError(t *testing.T) {
	result := CheckSEC017("chmod 777 /etc/passwd")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, Error, result.Diagnostics[0].Severity)
}

func TestSEC017FlagsChmod664AsWarning(t *testing.T) {
	result := CheckSEC017("chmod 664 /srv/shared")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, Warning, result.Diagnostics[0].Severity)
}

func TestBASH002WarnsOnPipelineWithoutPipefail(t *testing.T) {
	result := CheckBASH002("#!/bin/bash\nset -e\ncurl https://example.com/data.json | jq '.items[]'\n")
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].Message, "pipefail")
}

func TestBASH002PassesWithPipefail(t *testing.T) {
	result := CheckBASH002("#!/bin/bash\nset -euo pipefail\ncurl https://example.com/data.json | jq '.items[]'\n")
	assert.Empty(t, result.Diagnostics)
}

func TestBASH006FlagsUndocumentedFunction(t *testing.T) {
	result := CheckBASH006("process_data() {\n  echo hi\n}\n")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, Info, result.Diagnostics[0].Severity)
}

func TestBASH006SkipsDocumentedFunction(t *testing.T) {
	result := CheckBASH006("# Process data\nprocess_data() {\n  echo hi\n}\n")
	assert.Empty(t, result.Diagnostics)
}

func TestBASH007FlagsHardcodedPath(t *testing.T) {
	result := CheckBASH007("/usr/local/bin/jq '.items[]' data.json")
	require.Len(t, result.Diagnostics, 1)
}

func TestBASH007SkipsShebang(t *testing.T) {
	result := CheckBASH007("#!/usr/bin/env bash")
	assert.Empty(t, result.Diagnostics)
}

func TestBASH008FlagsSilentExit(t *testing.T) {
	result := CheckBASH008("if [ ! -f \"$CONFIG\" ]; then\nexit 1\nfi\n")
	require.Len(t, result.Diagnostics, 1)
}

func TestBASH008SkipsExitZero(t *testing.T) {
	result := CheckBASH008("exit 0\n")
	assert.Empty(t, result.Diagnostics)
}

func TestBASH008SkipsExitWithMessage(t *testing.T) {
	result := CheckBASH008(`echo "Error: failed" >&2` + "\nexit 1\n")
	assert.Empty(t, result.Diagnostics)
}

func TestMAKE003FlagsUnquotedVarInRecipe(t *testing.T) {
	result := CheckMAKE003("clean:\n\trm -rf $BUILD_DIR\n")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "MAKE003", result.Diagnostics[0].Code)
}

func TestMAKE003SkipsQuotedVar(t *testing.T) {
	result := CheckMAKE003("clean:\n\trm -rf \"$BUILD_DIR\"\n")
	assert.Empty(t, result.Diagnostics)
}

func TestMAKE006FlagsMissingSourceDependency(t *testing.T) {
	result := CheckMAKE006("app:\n\tgcc main.c -o app")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "MAKE006", result.Diagnostics[0].Code)
}

func TestMAKE006SkipsDeclaredDependency(t *testing.T) {
	result := CheckMAKE006("app: main.c\n\tgcc main.c -o app")
	assert.Empty(t, result.Diagnostics)
}

func TestMAKE018FlagsSharedPathConflict(t *testing.T) {
	result := CheckMAKE018("install-bin:\n\tcp app /usr/bin/app\n\ninstall-lib:\n\tcp lib.so /usr/bin/lib.so\n")
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].Message, "parallel")
}

func TestMAKE018PassesWithNotParallel(t *testing.T) {
	result := CheckMAKE018(".NOTPARALLEL:\n\ninstall-bin:\n\tcp app /usr/bin/app\n\ninstall-lib:\n\tcp lib.so /usr/bin/lib.so\n")
	assert.Empty(t, result.Diagnostics)
}

func TestDOCKER010SuggestsHealthcheckWhenMissing(t *testing.T) {
	result := CheckDOCKER010("FROM alpine\nCMD [\"./app\"]\n")
	require.Len(t, result.Diagnostics, 1)
}

func TestDOCKER010NoFindingsWhenHealthy(t *testing.T) {
	result := CheckDOCKER010("FROM alpine\nHEALTHCHECK --interval=30s --timeout=5s --retries=3 CMD curl -f http://localhost/ || exit 1\nCMD [\"./app\"]\n")
	assert.Empty(t, result.Diagnostics)
}

func TestLAUNCHD001FlagsMissingXML(t *testing.T) {
	result := CheckLAUNCHD001("not xml at all")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, Error, result.Diagnostics[0].Severity)
}

func TestLAUNCHD001PassesValidPlist(t *testing.T) {
	plist := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.example.daemon</string>
    <key>ProgramArguments</key>
    <array>
        <string>/usr/local/bin/daemon</string>
    </array>
</dict>
</plist>`
	result := CheckLAUNCHD001(plist)
	for _, d := range result.Diagnostics {
		assert.NotEqual(t, Error, d.Severity)
	}
}

func TestSIGNAL001FlagsBackgroundJobWithoutWait(t *testing.T) {
	result := CheckSIGNAL001("long_running_task &\necho done\n")
	found := false
	for _, d := range result.Diagnostics {
		if d.Code == "SIGNAL001" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSIGNAL001PassesWithWait(t *testing.T) {
	result := CheckSIGNAL001("long_running_task &\nwait\n")
	assert.Empty(t, result.Diagnostics)
}

func TestLintDispatchesByKindAndRunsConcurrently(t *testing.T) {
	result, err := Lint("ls $FILES", KindShell, ProfileFull)
	require.NoError(t, err)
	found := false
	for _, d := range result.Diagnostics {
		if d.Code == "SC2086" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLintProfileMinimalDropsInfo(t *testing.T) {
	source := "process_data() {\n  echo hi\n}\n"
	full, err := Lint(source, KindShell, ProfileFull)
	require.NoError(t, err)
	minimal, err := Lint(source, KindShell, ProfileMinimal)
	require.NoError(t, err)
	assert.Greater(t, len(full.Diagnostics), len(minimal.Diagnostics))
}

func TestLintDoesNotRunMakefileRulesAgainstShellKind(t *testing.T) {
	result, err := Lint("app:\n\tgcc main.c -o app", KindShell, ProfileFull)
	require.NoError(t, err)
	for _, d := range result.Diagnostics {
		assert.NotEqual(t, "MAKE006", d.Code)
	}
}

func TestDiagnosticFormatWithPath(t *testing.T) {
	d := Diagnostic{Code: "SC2086", Severity: Warning, Message: "quote it", Span: NewSpan(3, 4, 10)}
	assert.Equal(t, "script.sh:3:4: warning: SC2086: quote it", d.FormatWithPath("script.sh"))
}

func TestLintResultHasErrors(t *testing.T) {
	var r LintResult
	r.Add(Diagnostic{Code: "SEC001", Severity: Error, Message: "x", Span: NewSpan(1, 1, 1)})
	assert.True(t, r.HasErrors())
}

func TestDiagnosticRenderContainsSameFieldsAsFormatWithPath(t *testing.T) {
	d := Diagnostic{Code: "SC2086", Severity: Warning, Message: "quote it", Span: NewSpan(3, 4, 10)}
	rendered := d.Render("script.sh")
	assert.Contains(t, rendered, "script.sh:3:4:")
	assert.Contains(t, rendered, "SC2086")
	assert.Contains(t, rendered, "quote it")
}

func TestLintProfileYAMLRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(ProfileStrict)
	require.NoError(t, err)
	assert.Equal(t, "strict\n", string(out))

	var got LintProfile
	require.NoError(t, yaml.Unmarshal([]byte("full\n"), &got))
	assert.Equal(t, ProfileFull, got)
}

func TestLintProfileYAMLRejectsUnknownValue(t *testing.T) {
	var got LintProfile
	assert.Error(t, yaml.Unmarshal([]byte("bogus\n"), &got))
}

// TestFixRoundTripSilencesTheDiagnostic is §8 property 6 ("a fix,
// once applied, never leaves the same diagnostic firing on the same
// span again"): every SC2086 hit's fix, applied back into the source,
// must make CheckSC2086 stop reporting that line. The unified diff
// (go-difflib) is asserted non-empty as evidence a change actually
// happened, not a no-op fix.
func TestFixRoundTripSilencesTheDiagnostic(t *testing.T) {
	sources := []string{
		"ls $FILES",
		"echo ${NAME}",
		"cp $SRC $DST",
	}
	for _, src := range sources {
		before := CheckSC2086(src)
		require.NotEmpty(t, before.Diagnostics, "fixture %q should trigger SC2086", src)

		for _, d := range before.Diagnostics {
			require.NotNil(t, d.Fix)
		}
		fixed := applyFixes(src, before.Diagnostics)

		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(src),
			B:        difflib.SplitLines(fixed),
			FromFile: "before",
			ToFile:   "after",
			Context:  1,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, diff)

		after := CheckSC2086(fixed)
		assert.Empty(t, after.Diagnostics, "fix for %q should silence SC2086, got %+v", src, after.Diagnostics)
	}
}

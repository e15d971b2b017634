// bashrscheck is a thin demonstration binary exercising
// bashrs.Transpile/Purify/Lint end to end — a CLI/REPL front door is
// explicitly out of scope for the core library (spec.md §1), so this
// command carries no logic of its own beyond flag parsing, file I/O,
// and formatting the core's own return values.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	bashrs "github.com/paiml/bashrs-sub011"
	"github.com/paiml/bashrs-sub011/lint"
	"github.com/paiml/bashrs-sub011/purify"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bashrscheck",
		Short: "Exercise the bashrs transpile/purify/lint core from the command line",
	}
	root.AddCommand(newTranspileCmd(), newPurifyCmd(), newLintCmd())
	return root
}

func readSource(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	return string(b), err
}

func newTranspileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transpile [file]",
		Short: "Lower restricted Rust source to a POSIX shell script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			out, err := bashrs.Transpile(src, bashrs.DefaultConfig())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func newPurifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purify [file]",
		Short: "Rewrite a bash script into a deterministic, idempotent form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			out, report, err := bashrs.Purify(src, purify.DefaultOptions())
			if err != nil {
				return err
			}
			if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			for _, fix := range report.DeterminismFixes {
				fmt.Fprintf(cmd.ErrOrStderr(), "determinism: %s\n", fix)
			}
			for _, fix := range report.IdempotencyFixes {
				fmt.Fprintf(cmd.ErrOrStderr(), "idempotency: %s\n", fix)
			}
			return nil
		},
	}
}

func newLintCmd() *cobra.Command {
	var kindFlag, profileFlag string
	cmd := &cobra.Command{
		Use:   "lint [file]",
		Short: "Run the rule engine over a shell/Makefile/Dockerfile-like artifact",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}
			profile, err := parseProfile(profileFlag)
			if err != nil {
				return err
			}
			path := "<stdin>"
			if len(args) > 0 {
				path = args[0]
			}
			src, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			result, err := bashrs.Lint(src, kind, profile)
			if err != nil {
				return err
			}
			for _, d := range result.Diagnostics {
				fmt.Fprintln(cmd.OutOrStdout(), d.Render(path))
			}
			if result.HasErrors() {
				return fmt.Errorf("lint: %d diagnostic(s) found", len(result.Diagnostics))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "shell", "artifact kind: shell|makefile|dockerfile|systemd|launchd")
	cmd.Flags().StringVar(&profileFlag, "profile", "full", "lint profile: minimal|strict|full")
	return cmd
}

func parseKind(s string) (lint.ArtifactKind, error) {
	switch s {
	case "shell":
		return lint.KindShell, nil
	case "makefile":
		return lint.KindMakefile, nil
	case "dockerfile":
		return lint.KindDockerfile, nil
	case "systemd":
		return lint.KindSystemdUnit, nil
	case "launchd":
		return lint.KindLaunchdPlist, nil
	default:
		return 0, fmt.Errorf("bashrscheck: unknown artifact kind %q", s)
	}
}

func parseProfile(s string) (lint.LintProfile, error) {
	switch s {
	case "minimal":
		return lint.ProfileMinimal, nil
	case "strict":
		return lint.ProfileStrict, nil
	case "full":
		return lint.ProfileFull, nil
	default:
		return 0, fmt.Errorf("bashrscheck: unknown lint profile %q", s)
	}
}

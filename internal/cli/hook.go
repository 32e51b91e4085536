package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookBegin = "# --- quorum pre-commit begin ---"
	hookEnd   = "# --- quorum pre-commit end ---"
)

var (
	hookFailOn      string
	hookFormat      string
	hookMaxFindings int
	hookAgents      string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Run quorum on staged changes before every commit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := preCommitPath()
		if err != nil {
			failWith(err)
			return nil
		}

		block := hookBlock(hookFailOn, hookFormat, hookMaxFindings, splitComma(hookAgents))

		existing, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			existing = nil
		case err != nil:
			failWith(fmt.Errorf("reading hook: %w", err))
			return nil
		}

		var content string
		if len(existing) == 0 {
			content = "#!/bin/sh\n" + block
		} else {
			content = upsertHookBlock(string(existing), block)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			failWith(fmt.Errorf("creating hooks directory: %w", err))
			return nil
		}
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			failWith(fmt.Errorf("writing hook: %w", err))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed quorum pre-commit hook at %s\n", path)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the quorum block from the pre-commit hook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := preCommitPath()
		if err != nil {
			failWith(err)
			return nil
		}

		existing, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "No pre-commit hook found.")
			return nil
		}
		if err != nil {
			failWith(fmt.Errorf("reading hook: %w", err))
			return nil
		}

		content := stripHookBlock(string(existing))
		if onlyShebang(content) {
			if err := os.Remove(path); err != nil {
				failWith(fmt.Errorf("removing hook: %w", err))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed pre-commit hook at %s\n", path)
			return nil
		}

		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			failWith(fmt.Errorf("writing hook: %w", err))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed quorum block from %s\n", path)
		return nil
	},
}

func preCommitPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-path", "hooks").Output()
	if err != nil {
		return "", errors.New("not a git repository")
	}
	return filepath.Join(strings.TrimSpace(string(out)), "pre-commit"), nil
}

// hookBlock renders the marked shell block. Findings at or above failOn
// block the commit; review errors only warn.
func hookBlock(failOn, format string, maxFindings int, agentKeys []string) string {
	args := fmt.Sprintf("--fail-on %s --format %s --max-findings %d", failOn, format, maxFindings)
	if len(agentKeys) > 0 {
		args += " --agents " + strings.Join(agentKeys, ",")
	}

	lines := []string{
		hookBegin,
		"quorum review staged " + args,
		"status=$?",
		`if [ "$status" -eq 1 ]; then`,
		`  echo "quorum: findings at or above --fail-on, commit blocked" >&2`,
		"  exit 1",
		`elif [ "$status" -ge 2 ]; then`,
		`  echo "quorum: review failed (exit $status), commit allowed" >&2`,
		"fi",
		hookEnd,
	}
	return strings.Join(lines, "\n") + "\n"
}

// upsertHookBlock replaces an existing quorum block in place or appends one.
func upsertHookBlock(existing, block string) string {
	before, after, ok := cutHookBlock(existing)
	if !ok {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + block
	}
	return before + block + after
}

func stripHookBlock(existing string) string {
	before, after, ok := cutHookBlock(existing)
	if !ok {
		return existing
	}
	return before + after
}

func cutHookBlock(s string) (before, after string, ok bool) {
	start := strings.Index(s, hookBegin)
	end := strings.Index(s, hookEnd)
	if start == -1 || end == -1 || end < start {
		return "", "", false
	}
	after = strings.TrimPrefix(s[end+len(hookEnd):], "\n")
	return s[:start], after, true
}

func onlyShebang(content string) bool {
	switch strings.TrimSpace(content) {
	case "", "#!/bin/sh", "#!/bin/bash", "#!/usr/bin/env sh", "#!/usr/bin/env bash":
		return true
	}
	return false
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "high", "Block the commit at this severity (info, low, medium, high, critical)")
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format")
	hookInstallCmd.Flags().IntVar(&hookMaxFindings, "max-findings", 10, "Maximum number of findings to print")
	hookInstallCmd.Flags().StringVar(&hookAgents, "agents", "", "Analyzers to run (comma-separated, default from config)")
}

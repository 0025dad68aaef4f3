// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with zap logging via ShellExecutor, exposes OSCommandRunner
// for default process execution, and defines the abstractions relcheck uses to
// run git and the GitHub CLI in a testable manner.
package execshell

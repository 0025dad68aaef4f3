package execshell

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandLogFieldNameConstant               = "command"
	argumentsLogFieldNameConstant             = "arguments"
	workingDirectoryLogFieldNameConstant      = "working_directory"
	exitCodeLogFieldNameConstant              = "exit_code"
	argumentsJoinSeparatorConstant            = " "
)

// CommandName identifies a supported executable.
type CommandName string

// Supported command enumerations.
const (
	CommandGit    CommandName = CommandName("git")
	CommandGitHub CommandName = CommandName("gh")
)

// CommandDetails describes a single external tool invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines a CommandName with invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands and reports their results.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// Sentinel construction errors.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failedError CommandFailedError) Error() string {
	return CommandMessageFormatter{}.BuildFailureMessage(failedError.Command, failedError.Result)
}

// CommandExecutionError reports a command that could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return CommandMessageFormatter{}.BuildExecutionFailureMessage(executionError.Command, executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutor runs external commands with structured logging.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	formatter CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor from the provided logger and runner.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{logger: logger, runner: runner, formatter: CommandMessageFormatter{}}, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteGitHubCLI runs the GitHub CLI with the provided details.
func (executor *ShellExecutor) ExecuteGitHubCLI(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.execute(executionContext, ShellCommand{Name: CommandGitHub, Details: details})
}

func (executor *ShellExecutor) execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logger.Debug(
		executor.formatter.BuildStartedMessage(command),
		executor.commandLogFields(command)...,
	)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Error(
			executor.formatter.BuildExecutionFailureMessage(command, runError),
			executor.commandLogFields(command)...,
		)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	if executionResult.ExitCode != 0 {
		executor.logger.Warn(
			executor.formatter.BuildFailureMessage(command, executionResult),
			append(executor.commandLogFields(command), zap.Int(exitCodeLogFieldNameConstant, executionResult.ExitCode))...,
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(
		executor.formatter.BuildSuccessMessage(command),
		executor.commandLogFields(command)...,
	)

	return executionResult, nil
}

func (executor *ShellExecutor) commandLogFields(command ShellCommand) []zap.Field {
	return []zap.Field{
		zap.String(commandLogFieldNameConstant, string(command.Name)),
		zap.String(argumentsLogFieldNameConstant, strings.Join(command.Details.Arguments, argumentsJoinSeparatorConstant)),
		zap.String(workingDirectoryLogFieldNameConstant, command.Details.WorkingDirectory),
	}
}

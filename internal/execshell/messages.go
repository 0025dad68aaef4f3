package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitRevParseSubcommandNameConstant  = "rev-parse"
	gitWorkTreeFlagConstant            = "--is-inside-work-tree"
	gitRemoteSubcommandNameConstant    = "remote"
	gitRemoteGetURLSubcommandConstant  = "get-url"
	gitBranchSubcommandNameConstant    = "branch"
	gitMergeBaseSubcommandNameConstant = "merge-base"
	gitLogSubcommandNameConstant       = "log"
	gitShowSubcommandNameConstant      = "show"
	githubRepoSubcommandNameConstant   = "repo"
	githubPullRequestSubcommandName    = "pr"
	githubRepoFlagNameConstant         = "--repo"
)

const (
	gitWorkTreeStartTemplateConstant            = "Analyzing repository at %s"
	gitWorkTreeSuccessTemplateConstant          = "%s is a Git repository"
	gitWorkTreeFailureTemplateConstant          = "Could not confirm %s is a Git repository (exit code %d%s)"
	gitWorkTreeExecutionFailureTemplateConstant = "Could not analyze %s: %s"

	gitRevisionStartTemplateConstant            = "Resolving %s in %s"
	gitRevisionSuccessTemplateConstant          = "Resolved %s in %s"
	gitRevisionFailureTemplateConstant          = "Failed to resolve %s in %s (exit code %d%s)"
	gitRevisionExecutionFailureTemplateConstant = "Unable to resolve %s in %s: %s"

	gitRemoteLookupStartTemplateConstant            = "Checking %s remote for %s"
	gitRemoteLookupSuccessTemplateConstant          = "Read %s remote for %s"
	gitRemoteLookupFailureTemplateConstant          = "Failed to read %s remote for %s (exit code %d%s)"
	gitRemoteLookupExecutionFailureTemplateConstant = "Unable to read %s remote for %s: %s"

	gitBranchListStartTemplateConstant            = "Listing remote branches in %s"
	gitBranchListSuccessTemplateConstant          = "Listed remote branches in %s"
	gitBranchListFailureTemplateConstant          = "Failed to list remote branches in %s (exit code %d%s)"
	gitBranchListExecutionFailureTemplateConstant = "Unable to list remote branches in %s: %s"

	gitMergeBaseStartTemplateConstant            = "Computing merge base of %s and %s in %s"
	gitMergeBaseSuccessTemplateConstant          = "Computed merge base of %s and %s in %s"
	gitMergeBaseFailureTemplateConstant          = "Failed to compute merge base of %s and %s in %s (exit code %d%s)"
	gitMergeBaseExecutionFailureTemplateConstant = "Unable to compute merge base of %s and %s in %s: %s"

	gitHistoryWalkStartTemplateConstant            = "Walking history reachable from %s in %s"
	gitHistoryWalkSuccessTemplateConstant          = "Walked history reachable from %s in %s"
	gitHistoryWalkFailureTemplateConstant          = "Failed to walk history reachable from %s in %s (exit code %d%s)"
	gitHistoryWalkExecutionFailureTemplateConstant = "Unable to walk history reachable from %s in %s: %s"

	gitCommitShowStartTemplateConstant            = "Reading commit %s in %s"
	gitCommitShowSuccessTemplateConstant          = "Read commit %s in %s"
	gitCommitShowFailureTemplateConstant          = "Failed to read commit %s in %s (exit code %d%s)"
	gitCommitShowExecutionFailureTemplateConstant = "Unable to read commit %s in %s: %s"

	githubRepoViewStartTemplateConstant            = "Resolving repository metadata for %s"
	githubRepoViewSuccessTemplateConstant          = "Resolved repository metadata for %s"
	githubRepoViewFailureTemplateConstant          = "Failed to resolve repository metadata for %s (exit code %d%s)"
	githubRepoViewExecutionFailureTemplateConstant = "Unable to resolve repository metadata for %s: %s"

	githubPullRequestListStartTemplateConstant            = "Listing merged pull requests for %s"
	githubPullRequestListSuccessTemplateConstant          = "Listed merged pull requests for %s"
	githubPullRequestListFailureTemplateConstant          = "Failed to list merged pull requests for %s (exit code %d%s)"
	githubPullRequestListExecutionFailureTemplateConstant = "Unable to list merged pull requests for %s: %s"
)

// CommandMessageFormatter renders human-readable descriptions of shell commands.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command that is about to execute.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage describes a command that completed successfully.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage describes a command that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage describes a command that could not be executed.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandGitHub:
		return formatter.describeGitHubMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)

	switch arguments[0] {
	case gitRevParseSubcommandNameConstant:
		if containsArgument(arguments, gitWorkTreeFlagConstant) {
			return formatter.renderStaged(stage, result, failure,
				gitWorkTreeStartTemplateConstant,
				gitWorkTreeSuccessTemplateConstant,
				gitWorkTreeFailureTemplateConstant,
				gitWorkTreeExecutionFailureTemplateConstant,
				workingDirectory)
		}
		reference := formatter.ensureValue(formatter.lastArgument(arguments))
		return formatter.renderStaged(stage, result, failure,
			gitRevisionStartTemplateConstant,
			gitRevisionSuccessTemplateConstant,
			gitRevisionFailureTemplateConstant,
			gitRevisionExecutionFailureTemplateConstant,
			reference, workingDirectory)
	case gitRemoteSubcommandNameConstant:
		if len(arguments) > 1 && arguments[1] == gitRemoteGetURLSubcommandConstant {
			remoteName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
			return formatter.renderStaged(stage, result, failure,
				gitRemoteLookupStartTemplateConstant,
				gitRemoteLookupSuccessTemplateConstant,
				gitRemoteLookupFailureTemplateConstant,
				gitRemoteLookupExecutionFailureTemplateConstant,
				remoteName, workingDirectory)
		}
	case gitBranchSubcommandNameConstant:
		return formatter.renderStaged(stage, result, failure,
			gitBranchListStartTemplateConstant,
			gitBranchListSuccessTemplateConstant,
			gitBranchListFailureTemplateConstant,
			gitBranchListExecutionFailureTemplateConstant,
			workingDirectory)
	case gitMergeBaseSubcommandNameConstant:
		firstReference := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
		secondReference := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
		return formatter.renderStaged(stage, result, failure,
			gitMergeBaseStartTemplateConstant,
			gitMergeBaseSuccessTemplateConstant,
			gitMergeBaseFailureTemplateConstant,
			gitMergeBaseExecutionFailureTemplateConstant,
			firstReference, secondReference, workingDirectory)
	case gitLogSubcommandNameConstant:
		startReference := formatter.ensureValue(formatter.firstNonFlagArgument(arguments[1:]))
		return formatter.renderStaged(stage, result, failure,
			gitHistoryWalkStartTemplateConstant,
			gitHistoryWalkSuccessTemplateConstant,
			gitHistoryWalkFailureTemplateConstant,
			gitHistoryWalkExecutionFailureTemplateConstant,
			startReference, workingDirectory)
	case gitShowSubcommandNameConstant:
		commitReference := formatter.ensureValue(formatter.lastArgument(arguments))
		return formatter.renderStaged(stage, result, failure,
			gitCommitShowStartTemplateConstant,
			gitCommitShowSuccessTemplateConstant,
			gitCommitShowFailureTemplateConstant,
			gitCommitShowExecutionFailureTemplateConstant,
			commitReference, workingDirectory)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitHubMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch arguments[0] {
	case githubRepoSubcommandNameConstant:
		repository := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))
		return formatter.renderStaged(stage, result, failure,
			githubRepoViewStartTemplateConstant,
			githubRepoViewSuccessTemplateConstant,
			githubRepoViewFailureTemplateConstant,
			githubRepoViewExecutionFailureTemplateConstant,
			repository)
	case githubPullRequestSubcommandName:
		repository := formatter.ensureValue(findFlagValue(arguments, githubRepoFlagNameConstant))
		return formatter.renderStaged(stage, result, failure,
			githubPullRequestListStartTemplateConstant,
			githubPullRequestListSuccessTemplateConstant,
			githubPullRequestListFailureTemplateConstant,
			githubPullRequestListExecutionFailureTemplateConstant,
			repository)
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

// renderStaged formats one of the four stage templates with the shared
// leading arguments; failure templates additionally receive the exit code and
// standard error suffix, execution failure templates the failure description.
func (formatter CommandMessageFormatter) renderStaged(stage messageStage, result ExecutionResult, failure error, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string, templateArguments ...any) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, templateArguments...)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, templateArguments...)
	case messageStageFailure:
		failureArguments := append(append([]any{}, templateArguments...), result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		return fmt.Sprintf(failureTemplate, failureArguments...)
	default:
		executionFailureArguments := append(append([]any{}, templateArguments...), formatter.describeFailure(failure))
		return fmt.Sprintf(executionFailureTemplate, executionFailureArguments...)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	label := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		label = fmt.Sprintf(commandLabelTemplateConstant, label, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	if len(command.Details.WorkingDirectory) > 0 {
		label += fmt.Sprintf(workingDirectorySuffixTemplateConstant, command.Details.WorkingDirectory)
	}
	return label
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedDirectory
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return ""
	}
	return arguments[index]
}

func (formatter CommandMessageFormatter) lastArgument(arguments []string) string {
	for argumentIndex := len(arguments) - 1; argumentIndex >= 0; argumentIndex-- {
		if !strings.HasPrefix(arguments[argumentIndex], "-") {
			return arguments[argumentIndex]
		}
	}
	return ""
}

func (formatter CommandMessageFormatter) firstNonFlagArgument(arguments []string) string {
	for _, argument := range arguments {
		if strings.HasPrefix(argument, "-") || strings.HasPrefix(argument, "^") {
			continue
		}
		return argument
	}
	return ""
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmedValue
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if argument == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for argumentIndex, argument := range arguments {
		if argument == flag && argumentIndex+1 < len(arguments) {
			return arguments[argumentIndex+1]
		}
	}
	return ""
}

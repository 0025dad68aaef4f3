package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/releasekit/relcheck/internal/execshell"
)

const (
	gitRevParseSubcommandConstant      = "rev-parse"
	gitIsInsideWorkTreeFlagConstant    = "--is-inside-work-tree"
	gitTrueOutputConstant              = "true"
	gitRemoteSubcommandConstant        = "remote"
	gitRemoteGetURLSubcommandConstant  = "get-url"
	gitBranchSubcommandConstant        = "branch"
	gitRemotesFlagConstant             = "--remotes"
	gitListFlagConstant                = "--list"
	gitFormatFlagConstant              = "--format"
	gitRefNameShortFormatConstant      = "%(refname:short)"
	gitMergeBaseSubcommandConstant     = "merge-base"
	gitLogSubcommandConstant           = "log"
	gitLogCommitFormatConstant         = "--format=%H\x1f%an"
	gitShowSubcommandConstant          = "show"
	gitNoPatchFlagConstant             = "--no-patch"
	gitCommitterDateFormatConstant     = "--format=%cI"
	gitExclusionPrefixConstant         = "^"
	gitHeadSuffixConstant              = "/HEAD"
	remoteBranchGlobTemplateConstant   = "%s/*"
	remoteReferenceTemplateConstant    = "%s/%s"
	commitRecordFieldSeparatorConstant = "\x1f"
	commitDisplayTemplateConstant      = "%s (%s)"

	executorNotConfiguredMessageConstant = "git executor not configured"
	notWorkTreeMessageConstant           = "path is not inside a git work tree"
	emptyRevisionMessageConstant         = "revision resolved to an empty value"
	emptyMergeBaseMessageConstant        = "merge base resolved to an empty value"
	repositoryAccessErrorTemplate        = "repository access failed during %s: %s"

	operationWorkTreeCheckConstant   = "work tree check"
	operationRemoteLookupConstant    = "remote lookup"
	operationRevisionResolveConstant = "revision resolution"
	operationBranchListConstant      = "branch listing"
	operationMergeBaseConstant       = "merge base computation"
	operationHistoryWalkConstant     = "history walk"
	operationCommitTimestampConstant = "commit timestamp lookup"
)

// ErrExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// RepositoryAccessError reports a failed interaction with the local repository.
type RepositoryAccessError struct {
	Operation string
	Cause     error
}

// Error describes the repository access failure.
func (accessError RepositoryAccessError) Error() string {
	return fmt.Sprintf(repositoryAccessErrorTemplate, accessError.Operation, accessError.Cause)
}

// Unwrap exposes the underlying cause.
func (accessError RepositoryAccessError) Unwrap() error {
	return accessError.Cause
}

// Commit identifies a single commit together with its author name.
type Commit struct {
	ID     string
	Author string
}

// String renders the commit identifier with its author.
func (commit Commit) String() string {
	return fmt.Sprintf(commitDisplayTemplateConstant, commit.ID, commit.Author)
}

// GitExecutor is the subset of execshell.ShellExecutor required by the manager.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager performs structured git operations against one repository.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager around the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// EnsureWorkTree verifies the provided path lies inside a git work tree.
func (manager *RepositoryManager) EnsureWorkTree(executionContext context.Context, repositoryPath string) error {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, operationWorkTreeCheckConstant,
		gitRevParseSubcommandConstant, gitIsInsideWorkTreeFlagConstant)
	if executionError != nil {
		return executionError
	}

	if strings.TrimSpace(executionResult.StandardOutput) != gitTrueOutputConstant {
		return RepositoryAccessError{Operation: operationWorkTreeCheckConstant, Cause: errors.New(notWorkTreeMessageConstant)}
	}
	return nil
}

// GetRemoteURL returns the URL configured for the named remote.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, operationRemoteLookupConstant,
		gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, remoteName)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// ResolveRevision resolves a reference to its commit identifier.
func (manager *RepositoryManager) ResolveRevision(executionContext context.Context, repositoryPath string, reference string) (string, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, operationRevisionResolveConstant,
		gitRevParseSubcommandConstant, reference)
	if executionError != nil {
		return "", executionError
	}

	resolvedRevision := strings.TrimSpace(executionResult.StandardOutput)
	if len(resolvedRevision) == 0 {
		return "", RepositoryAccessError{Operation: operationRevisionResolveConstant, Cause: errors.New(emptyRevisionMessageConstant)}
	}
	return resolvedRevision, nil
}

// ListRemoteBranchNames enumerates branch names known for the provided remote,
// with the remote prefix stripped.
func (manager *RepositoryManager) ListRemoteBranchNames(executionContext context.Context, repositoryPath string, remoteName string) ([]string, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, operationBranchListConstant,
		gitBranchSubcommandConstant, gitRemotesFlagConstant,
		gitListFlagConstant, fmt.Sprintf(remoteBranchGlobTemplateConstant, remoteName),
		gitFormatFlagConstant, gitRefNameShortFormatConstant)
	if executionError != nil {
		return nil, executionError
	}

	remotePrefix := remoteName + "/"
	var branchNames []string
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) == 0 || strings.HasSuffix(trimmedLine, gitHeadSuffixConstant) {
			continue
		}
		if !strings.HasPrefix(trimmedLine, remotePrefix) {
			continue
		}
		branchNames = append(branchNames, strings.TrimPrefix(trimmedLine, remotePrefix))
	}
	return branchNames, nil
}

// MergeBase returns the best common ancestor of the two provided references.
func (manager *RepositoryManager) MergeBase(executionContext context.Context, repositoryPath string, firstReference string, secondReference string) (string, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, operationMergeBaseConstant,
		gitMergeBaseSubcommandConstant, firstReference, secondReference)
	if executionError != nil {
		return "", executionError
	}

	mergeBase := strings.TrimSpace(executionResult.StandardOutput)
	if len(mergeBase) == 0 {
		return "", RepositoryAccessError{Operation: operationMergeBaseConstant, Cause: errors.New(emptyMergeBaseMessageConstant)}
	}
	return mergeBase, nil
}

// CommitsBetween lists the commits reachable from fromRevision but not from
// toRevision, newest first. An empty toRevision walks the full ancestry.
func (manager *RepositoryManager) CommitsBetween(executionContext context.Context, repositoryPath string, fromRevision string, toRevision string) ([]Commit, error) {
	logArguments := []string{gitLogSubcommandConstant, gitLogCommitFormatConstant, fromRevision}
	if len(strings.TrimSpace(toRevision)) > 0 {
		logArguments = append(logArguments, gitExclusionPrefixConstant+toRevision)
	}

	executionResult, executionError := manager.runGit(executionContext, repositoryPath, operationHistoryWalkConstant, logArguments...)
	if executionError != nil {
		return nil, executionError
	}

	var commits []Commit
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if len(trimmedLine) == 0 {
			continue
		}
		recordFields := strings.SplitN(trimmedLine, commitRecordFieldSeparatorConstant, 2)
		commit := Commit{ID: recordFields[0]}
		if len(recordFields) > 1 {
			commit.Author = recordFields[1]
		}
		commits = append(commits, commit)
	}
	return commits, nil
}

// CommitTimestamp returns the committer timestamp of the provided commit.
func (manager *RepositoryManager) CommitTimestamp(executionContext context.Context, repositoryPath string, commitID string) (time.Time, error) {
	executionResult, executionError := manager.runGit(executionContext, repositoryPath, operationCommitTimestampConstant,
		gitShowSubcommandConstant, gitNoPatchFlagConstant, gitCommitterDateFormatConstant, commitID)
	if executionError != nil {
		return time.Time{}, executionError
	}

	timestampText := strings.TrimSpace(executionResult.StandardOutput)
	commitTimestamp, parseError := time.Parse(time.RFC3339, timestampText)
	if parseError != nil {
		return time.Time{}, RepositoryAccessError{Operation: operationCommitTimestampConstant, Cause: parseError}
	}
	return commitTimestamp, nil
}

// RemoteReference joins a remote name and branch name into a tracking reference.
func RemoteReference(remoteName string, branchName string) string {
	return fmt.Sprintf(remoteReferenceTemplateConstant, remoteName, branchName)
}

func (manager *RepositoryManager) runGit(executionContext context.Context, repositoryPath string, operation string, arguments ...string) (execshell.ExecutionResult, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	}

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return execshell.ExecutionResult{}, RepositoryAccessError{Operation: operation, Cause: executionError}
	}
	return executionResult, nil
}

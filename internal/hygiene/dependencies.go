package hygiene

import (
	"context"
	"time"

	"github.com/releasekit/relcheck/internal/execshell"
	"github.com/releasekit/relcheck/internal/githubcli"
	"github.com/releasekit/relcheck/internal/gitrepo"
)

// CommandExecutor exposes the subset of shell execution used by the audit command.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// VersionControlManager exposes the repository-level git operations the audit requires.
type VersionControlManager interface {
	EnsureWorkTree(executionContext context.Context, repositoryPath string) error
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	ResolveRevision(executionContext context.Context, repositoryPath string, reference string) (string, error)
	ListStableBranches(executionContext context.Context, repositoryPath string, remoteName string, primaryBranchName string) ([]gitrepo.StableBranch, error)
	CommitsBetween(executionContext context.Context, repositoryPath string, fromRevision string, toRevision string) ([]gitrepo.Commit, error)
	CommitTimestamp(executionContext context.Context, repositoryPath string, commitID string) (time.Time, error)
}

// HostingResolver exposes the hosting metadata the audit requires.
type HostingResolver interface {
	ResolveDefaultBranch(executionContext context.Context, repository string) (string, error)
	ListMergedPullRequestsSince(executionContext context.Context, repository string, baseBranch string, since time.Time) (map[int]githubcli.MergedPullRequest, error)
}

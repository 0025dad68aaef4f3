package hygiene

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/releasekit/relcheck/internal/gitrepo"
)

const (
	checkMarkConstant  = "🗸"
	crossMarkConstant  = "🗙"
	authorMarkConstant = "⚠"

	noStableBranchesMessageConstant        = "no stable branches found"
	versionControlNotConfiguredMessage     = "version control manager not configured"
	hostingResolverNotConfiguredMessage    = "hosting resolver not configured"
	stableBranchesFoundHeaderConstant      = "Found stable branches:"
	unlabeledPullRequestsHeaderConstant    = "\nPull-requests without description label:"
	unreferencedCommitsHeaderConstant      = "\nCommits not referenced by any pull-request:"
	flaggedAuthorsHeaderConstant           = "\nTell these authors not to push without pull-request and not to merge with rebase:"
	stableBranchLineTemplateConstant       = "%s %s forked from %s\n"
	unlabeledPullRequestLineTemplate       = "%s %d\n"
	unreferencedCommitLineTemplateConstant = "%s %s\n"
	flaggedAuthorLineTemplateConstant      = "%s %s\n"
	pullRequestLabelPrefixConstant         = "pr-"

	repositoryLogFieldConstant      = "repository"
	defaultBranchLogFieldConstant   = "default_branch"
	stableBranchesLogFieldConstant  = "stable_branches"
	pullRequestsLogFieldConstant    = "merged_pull_requests"
	violationsLogFieldConstant      = "violations"
	auditStartedLogMessageConstant  = "starting release hygiene audit"
	auditFinishedLogMessageConstant = "release hygiene audit finished"
)

// ErrNoStableBranches indicates the repository has no branches matching the stable naming scheme.
var ErrNoStableBranches = errors.New(noStableBranchesMessageConstant)

// Sentinel construction errors.
var (
	ErrVersionControlNotConfigured  = errors.New(versionControlNotConfiguredMessage)
	ErrHostingResolverNotConfigured = errors.New(hostingResolverNotConfiguredMessage)
)

// Service performs the release hygiene audit using the injected adapters.
type Service struct {
	logger         *zap.Logger
	versionControl VersionControlManager
	hosting        HostingResolver
	outputWriter   io.Writer
	errorWriter    io.Writer
}

// NewService constructs a Service from the provided dependencies.
func NewService(logger *zap.Logger, versionControl VersionControlManager, hosting HostingResolver, outputWriter io.Writer, errorWriter io.Writer) (*Service, error) {
	if versionControl == nil {
		return nil, ErrVersionControlNotConfigured
	}
	if hosting == nil {
		return nil, ErrHostingResolverNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	if errorWriter == nil {
		errorWriter = io.Discard
	}
	return &Service{
		logger:         logger,
		versionControl: versionControl,
		hosting:        hosting,
		outputWriter:   outputWriter,
		errorWriter:    errorWriter,
	}, nil
}

// Run executes the audit and renders its report. Hygiene violations are
// reported through the writers and never produce an error; only repository or
// hosting failures do.
func (service *Service) Run(executionContext context.Context, options CommandOptions) error {
	report, auditError := service.Audit(executionContext, options)
	if auditError != nil {
		return auditError
	}

	service.renderReport(report)
	return nil
}

// Audit gathers the hygiene findings without rendering them.
func (service *Service) Audit(executionContext context.Context, options CommandOptions) (AuditReport, error) {
	worktreeError := service.versionControl.EnsureWorkTree(executionContext, options.RepositoryPath)
	if worktreeError != nil {
		return AuditReport{}, worktreeError
	}

	remoteURL, remoteURLError := service.versionControl.GetRemoteURL(executionContext, options.RepositoryPath, options.RemoteName)
	if remoteURLError != nil {
		return AuditReport{}, remoteURLError
	}

	repositoryIdentifier, identifierError := gitrepo.OwnerRepositoryFromRemoteURL(remoteURL)
	if identifierError != nil {
		return AuditReport{}, identifierError
	}

	defaultBranchName, defaultBranchError := service.hosting.ResolveDefaultBranch(executionContext, repositoryIdentifier)
	if defaultBranchError != nil {
		return AuditReport{}, defaultBranchError
	}

	service.logger.Debug(
		auditStartedLogMessageConstant,
		zap.String(repositoryLogFieldConstant, repositoryIdentifier),
		zap.String(defaultBranchLogFieldConstant, defaultBranchName),
	)

	stableBranches, stableBranchesError := service.versionControl.ListStableBranches(executionContext, options.RepositoryPath, options.RemoteName, defaultBranchName)
	if stableBranchesError != nil {
		return AuditReport{}, stableBranchesError
	}
	if len(stableBranches) == 0 {
		return AuditReport{}, ErrNoStableBranches
	}
	if options.StableBranchCount > 0 && options.StableBranchCount < len(stableBranches) {
		stableBranches = stableBranches[len(stableBranches)-options.StableBranchCount:]
	}

	oldestForkPoint := stableBranches[0].ForkPoint
	mergeWindowStart, timestampError := service.versionControl.CommitTimestamp(executionContext, options.RepositoryPath, oldestForkPoint)
	if timestampError != nil {
		return AuditReport{}, timestampError
	}

	mergedPullRequests, pullRequestsError := service.hosting.ListMergedPullRequestsSince(executionContext, repositoryIdentifier, defaultBranchName, mergeWindowStart)
	if pullRequestsError != nil {
		return AuditReport{}, pullRequestsError
	}

	referencedCommits := make(map[string]struct{}, len(mergedPullRequests))
	for _, mergedPullRequest := range mergedPullRequests {
		referencedCommits[mergedPullRequest.MergeCommit] = struct{}{}
	}

	headRevision, headRevisionError := service.versionControl.ResolveRevision(executionContext, options.RepositoryPath, gitrepo.RemoteReference(options.RemoteName, defaultBranchName))
	if headRevisionError != nil {
		return AuditReport{}, headRevisionError
	}

	unreferencedCommits := []gitrepo.Commit{}
	segmentUpperBound := headRevision
	for stableBranchIndex := len(stableBranches) - 1; stableBranchIndex >= 0; stableBranchIndex-- {
		segmentLowerBound := stableBranches[stableBranchIndex].ForkPoint
		segmentCommits, segmentError := service.versionControl.CommitsBetween(executionContext, options.RepositoryPath, segmentUpperBound, segmentLowerBound)
		if segmentError != nil {
			return AuditReport{}, segmentError
		}

		for _, segmentCommit := range segmentCommits {
			if _, referenced := referencedCommits[segmentCommit.ID]; referenced {
				continue
			}
			if segmentCommit.Author == options.AutomationAuthor {
				continue
			}
			unreferencedCommits = append(unreferencedCommits, segmentCommit)
		}

		segmentUpperBound = segmentLowerBound
	}

	unlabeledPullRequests := []int{}
	for pullRequestNumber, mergedPullRequest := range mergedPullRequests {
		if hasDescriptionLabel(mergedPullRequest.Labels) {
			continue
		}
		unlabeledPullRequests = append(unlabeledPullRequests, pullRequestNumber)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(unlabeledPullRequests)))

	report := AuditReport{
		StableBranches:        stableBranches,
		UnreferencedCommits:   unreferencedCommits,
		UnlabeledPullRequests: unlabeledPullRequests,
		FlaggedAuthors:        collectAuthors(unreferencedCommits),
	}

	service.logger.Debug(
		auditFinishedLogMessageConstant,
		zap.Int(stableBranchesLogFieldConstant, len(report.StableBranches)),
		zap.Int(pullRequestsLogFieldConstant, len(mergedPullRequests)),
		zap.Bool(violationsLogFieldConstant, report.HasViolations()),
	)

	return report, nil
}

func (service *Service) renderReport(report AuditReport) {
	fmt.Fprintln(service.outputWriter, stableBranchesFoundHeaderConstant)
	for _, stableBranch := range report.StableBranches {
		fmt.Fprintf(service.outputWriter, stableBranchLineTemplateConstant, checkMarkConstant, stableBranch.Name, stableBranch.ForkPoint)
	}

	if len(report.UnlabeledPullRequests) > 0 {
		fmt.Fprintln(service.errorWriter, unlabeledPullRequestsHeaderConstant)
		for _, pullRequestNumber := range report.UnlabeledPullRequests {
			fmt.Fprintf(service.errorWriter, unlabeledPullRequestLineTemplate, crossMarkConstant, pullRequestNumber)
		}
	}

	if len(report.UnreferencedCommits) > 0 {
		fmt.Fprintln(service.errorWriter, unreferencedCommitsHeaderConstant)
		for _, unreferencedCommit := range report.UnreferencedCommits {
			fmt.Fprintf(service.errorWriter, unreferencedCommitLineTemplateConstant, crossMarkConstant, unreferencedCommit.String())
		}

		fmt.Fprintln(service.outputWriter, flaggedAuthorsHeaderConstant)
		for _, flaggedAuthor := range report.FlaggedAuthors {
			fmt.Fprintf(service.outputWriter, flaggedAuthorLineTemplateConstant, authorMarkConstant, flaggedAuthor)
		}
	}
}

func hasDescriptionLabel(labels []string) bool {
	for _, labelName := range labels {
		if strings.HasPrefix(labelName, pullRequestLabelPrefixConstant) {
			return true
		}
	}
	return false
}

func collectAuthors(commits []gitrepo.Commit) []string {
	uniqueAuthors := make(map[string]struct{}, len(commits))
	for _, commit := range commits {
		uniqueAuthors[commit.Author] = struct{}{}
	}

	authors := make([]string, 0, len(uniqueAuthors))
	for authorName := range uniqueAuthors {
		authors = append(authors, authorName)
	}
	sort.Strings(authors)
	return authors
}

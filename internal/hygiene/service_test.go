package hygiene_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/releasekit/relcheck/internal/githubcli"
	"github.com/releasekit/relcheck/internal/gitrepo"
	"github.com/releasekit/relcheck/internal/hygiene"
)

const (
	testRepositoryPathConstant   = "/workspace/widgets"
	testRemoteNameConstant       = "origin"
	testRemoteURLConstant        = "https://github.com/example/widgets.git"
	testDefaultBranchConstant    = "master"
	testAutomationAuthorConstant = "release-robot"
)

type stubVersionControl struct {
	worktreeError    error
	remoteURL        string
	stableBranches   []gitrepo.StableBranch
	headRevision     string
	commitTimestamps map[string]time.Time
	segments         map[string][]gitrepo.Commit
	walkedSegments   []string
}

func segmentKey(fromRevision string, toRevision string) string {
	return fromRevision + " ^" + toRevision
}

func (stub *stubVersionControl) EnsureWorkTree(_ context.Context, _ string) error {
	return stub.worktreeError
}

func (stub *stubVersionControl) GetRemoteURL(_ context.Context, _ string, _ string) (string, error) {
	return stub.remoteURL, nil
}

func (stub *stubVersionControl) ResolveRevision(_ context.Context, _ string, _ string) (string, error) {
	return stub.headRevision, nil
}

func (stub *stubVersionControl) ListStableBranches(_ context.Context, _ string, _ string, _ string) ([]gitrepo.StableBranch, error) {
	return stub.stableBranches, nil
}

func (stub *stubVersionControl) CommitsBetween(_ context.Context, _ string, fromRevision string, toRevision string) ([]gitrepo.Commit, error) {
	walkedSegment := segmentKey(fromRevision, toRevision)
	stub.walkedSegments = append(stub.walkedSegments, walkedSegment)
	commits, segmentFound := stub.segments[walkedSegment]
	if !segmentFound {
		return nil, errors.New("unexpected segment: " + walkedSegment)
	}
	return commits, nil
}

func (stub *stubVersionControl) CommitTimestamp(_ context.Context, _ string, commitID string) (time.Time, error) {
	timestamp, timestampFound := stub.commitTimestamps[commitID]
	if !timestampFound {
		return time.Time{}, errors.New("unexpected timestamp lookup: " + commitID)
	}
	return timestamp, nil
}

type stubHosting struct {
	defaultBranch     string
	pullRequests      map[int]githubcli.MergedPullRequest
	pullRequestsError error
	recordedSince     time.Time
}

func (stub *stubHosting) ResolveDefaultBranch(_ context.Context, _ string) (string, error) {
	return stub.defaultBranch, nil
}

func (stub *stubHosting) ListMergedPullRequestsSince(_ context.Context, _ string, _ string, since time.Time) (map[int]githubcli.MergedPullRequest, error) {
	stub.recordedSince = since
	if stub.pullRequestsError != nil {
		return nil, stub.pullRequestsError
	}
	return stub.pullRequests, nil
}

func defaultOptions() hygiene.CommandOptions {
	return hygiene.CommandOptions{
		RepositoryPath:    testRepositoryPathConstant,
		RemoteName:        testRemoteNameConstant,
		StableBranchCount: 3,
		AutomationAuthor:  testAutomationAuthorConstant,
	}
}

func TestAuditFlagsUnreferencedCommitsAndUnlabeledPullRequests(testInstance *testing.T) {
	forkPointTimestamp := time.Date(2024, time.February, 1, 9, 30, 0, 0, time.UTC)
	versionControl := &stubVersionControl{
		remoteURL: testRemoteURLConstant,
		stableBranches: []gitrepo.StableBranch{
			{Name: "21.1", Year: 21, Number: 1, ForkPoint: "fork1"},
			{Name: "21.2", Year: 21, Number: 2, ForkPoint: "fork2"},
		},
		headRevision:     "head",
		commitTimestamps: map[string]time.Time{"fork1": forkPointTimestamp},
		segments: map[string][]gitrepo.Commit{
			segmentKey("head", "fork2"): {
				{ID: "commitX", Author: "alice"},
				{ID: "commitY", Author: "mallory"},
			},
			segmentKey("fork2", "fork1"): {
				{ID: "commitZ", Author: testAutomationAuthorConstant},
			},
		},
	}
	hosting := &stubHosting{
		defaultBranch: testDefaultBranchConstant,
		pullRequests: map[int]githubcli.MergedPullRequest{
			10: {Number: 10, MergeCommit: "commitX", Labels: []string{"pr-feature"}},
			8:  {Number: 8, MergeCommit: "commitQ", Labels: []string{"documentation"}},
		},
	}

	service, creationError := hygiene.NewService(nil, versionControl, hosting, nil, nil)
	require.NoError(testInstance, creationError)

	report, auditError := service.Audit(context.Background(), defaultOptions())
	require.NoError(testInstance, auditError)

	require.Equal(testInstance, []gitrepo.Commit{{ID: "commitY", Author: "mallory"}}, report.UnreferencedCommits)
	require.Equal(testInstance, []int{8}, report.UnlabeledPullRequests)
	require.Equal(testInstance, []string{"mallory"}, report.FlaggedAuthors)
	require.True(testInstance, report.HasViolations())
	require.Equal(testInstance, forkPointTimestamp, hosting.recordedSince)
}

func TestAuditWalksSegmentsNewestToOldestWithoutGapsOrOverlap(testInstance *testing.T) {
	versionControl := &stubVersionControl{
		remoteURL: testRemoteURLConstant,
		stableBranches: []gitrepo.StableBranch{
			{Name: "23.1", Year: 23, Number: 1, ForkPoint: "fork1"},
			{Name: "23.2", Year: 23, Number: 2, ForkPoint: "fork2"},
			{Name: "23.3", Year: 23, Number: 3, ForkPoint: "fork3"},
		},
		headRevision:     "head",
		commitTimestamps: map[string]time.Time{"fork1": time.Now()},
		segments: map[string][]gitrepo.Commit{
			segmentKey("head", "fork3"):  {},
			segmentKey("fork3", "fork2"): {},
			segmentKey("fork2", "fork1"): {},
		},
	}
	hosting := &stubHosting{defaultBranch: testDefaultBranchConstant}

	service, creationError := hygiene.NewService(nil, versionControl, hosting, nil, nil)
	require.NoError(testInstance, creationError)

	_, auditError := service.Audit(context.Background(), defaultOptions())
	require.NoError(testInstance, auditError)

	expectedSegments := []string{
		segmentKey("head", "fork3"),
		segmentKey("fork3", "fork2"),
		segmentKey("fork2", "fork1"),
	}
	require.Equal(testInstance, expectedSegments, versionControl.walkedSegments)
}

func TestAuditTruncatesToMostRecentStableBranches(testInstance *testing.T) {
	versionControl := &stubVersionControl{
		remoteURL: testRemoteURLConstant,
		stableBranches: []gitrepo.StableBranch{
			{Name: "22.12", Year: 22, Number: 12, ForkPoint: "fork0"},
			{Name: "23.1", Year: 23, Number: 1, ForkPoint: "fork1"},
			{Name: "23.2", Year: 23, Number: 2, ForkPoint: "fork2"},
		},
		headRevision:     "head",
		commitTimestamps: map[string]time.Time{"fork1": time.Now()},
		segments: map[string][]gitrepo.Commit{
			segmentKey("head", "fork2"):  {},
			segmentKey("fork2", "fork1"): {},
		},
	}
	hosting := &stubHosting{defaultBranch: testDefaultBranchConstant}

	service, creationError := hygiene.NewService(nil, versionControl, hosting, nil, nil)
	require.NoError(testInstance, creationError)

	options := defaultOptions()
	options.StableBranchCount = 2

	report, auditError := service.Audit(context.Background(), options)
	require.NoError(testInstance, auditError)

	require.Len(testInstance, report.StableBranches, 2)
	require.Equal(testInstance, "23.1", report.StableBranches[0].Name)
	require.Equal(testInstance, "23.2", report.StableBranches[1].Name)
}

func TestAuditUsesAvailableBranchesWhenFewerThanRequested(testInstance *testing.T) {
	versionControl := &stubVersionControl{
		remoteURL: testRemoteURLConstant,
		stableBranches: []gitrepo.StableBranch{
			{Name: "24.1", Year: 24, Number: 1, ForkPoint: "fork1"},
		},
		headRevision:     "head",
		commitTimestamps: map[string]time.Time{"fork1": time.Now()},
		segments: map[string][]gitrepo.Commit{
			segmentKey("head", "fork1"): {},
		},
	}
	hosting := &stubHosting{defaultBranch: testDefaultBranchConstant}

	service, creationError := hygiene.NewService(nil, versionControl, hosting, nil, nil)
	require.NoError(testInstance, creationError)

	options := defaultOptions()
	options.StableBranchCount = 5

	report, auditError := service.Audit(context.Background(), options)
	require.NoError(testInstance, auditError)
	require.Len(testInstance, report.StableBranches, 1)
}

func TestAuditFailsWithoutStableBranches(testInstance *testing.T) {
	versionControl := &stubVersionControl{remoteURL: testRemoteURLConstant}
	hosting := &stubHosting{defaultBranch: testDefaultBranchConstant}

	service, creationError := hygiene.NewService(nil, versionControl, hosting, nil, nil)
	require.NoError(testInstance, creationError)

	_, auditError := service.Audit(context.Background(), defaultOptions())
	require.ErrorIs(testInstance, auditError, hygiene.ErrNoStableBranches)
}

func TestAuditPropagatesAdapterFailures(testInstance *testing.T) {
	worktreeFailure := gitrepo.RepositoryAccessError{Operation: "work tree check", Cause: errors.New("not a repository")}
	versionControl := &stubVersionControl{worktreeError: worktreeFailure}
	hosting := &stubHosting{defaultBranch: testDefaultBranchConstant}

	service, creationError := hygiene.NewService(nil, versionControl, hosting, nil, nil)
	require.NoError(testInstance, creationError)

	_, auditError := service.Audit(context.Background(), defaultOptions())
	require.Error(testInstance, auditError)
	require.IsType(testInstance, gitrepo.RepositoryAccessError{}, auditError)
}

func TestRunRendersReportAndKeepsViolationsNonFatal(testInstance *testing.T) {
	versionControl := &stubVersionControl{
		remoteURL: testRemoteURLConstant,
		stableBranches: []gitrepo.StableBranch{
			{Name: "21.1", Year: 21, Number: 1, ForkPoint: "fork1"},
			{Name: "21.2", Year: 21, Number: 2, ForkPoint: "fork2"},
		},
		headRevision:     "head",
		commitTimestamps: map[string]time.Time{"fork1": time.Now()},
		segments: map[string][]gitrepo.Commit{
			segmentKey("head", "fork2"):  {{ID: "commitY", Author: "mallory"}},
			segmentKey("fork2", "fork1"): {},
		},
	}
	hosting := &stubHosting{
		defaultBranch: testDefaultBranchConstant,
		pullRequests: map[int]githubcli.MergedPullRequest{
			3:  {Number: 3, MergeCommit: "commitA"},
			12: {Number: 12, MergeCommit: "commitB"},
		},
	}

	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}
	service, creationError := hygiene.NewService(nil, versionControl, hosting, outputBuffer, errorBuffer)
	require.NoError(testInstance, creationError)

	runError := service.Run(context.Background(), defaultOptions())
	require.NoError(testInstance, runError)

	standardOutput := outputBuffer.String()
	require.Contains(testInstance, standardOutput, "Found stable branches:")
	require.Contains(testInstance, standardOutput, "🗸 21.1 forked from fork1")
	require.Contains(testInstance, standardOutput, "🗸 21.2 forked from fork2")
	require.Contains(testInstance, standardOutput, "⚠ mallory")

	standardError := errorBuffer.String()
	require.Contains(testInstance, standardError, "🗙 commitY (mallory)")
	unlabeledOrder := fmt.Sprintf("🗙 %d\n🗙 %d\n", 12, 3)
	require.Contains(testInstance, standardError, unlabeledOrder)
}

package hygiene

import (
	"github.com/releasekit/relcheck/internal/gitrepo"
)

// CommandOptions captures the resolved inputs for a single audit run.
type CommandOptions struct {
	RepositoryPath    string
	RemoteName        string
	StableBranchCount int
	AutomationAuthor  string
}

// AuditReport aggregates the findings of an audit run.
type AuditReport struct {
	StableBranches        []gitrepo.StableBranch
	UnreferencedCommits   []gitrepo.Commit
	UnlabeledPullRequests []int
	FlaggedAuthors        []string
}

// HasViolations reports whether the audit found any hygiene problems.
func (report AuditReport) HasViolations() bool {
	return len(report.UnreferencedCommits) > 0 || len(report.UnlabeledPullRequests) > 0
}

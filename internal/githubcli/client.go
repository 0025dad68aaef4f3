package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/releasekit/relcheck/internal/execshell"
)

const (
	repoSubcommandConstant        = "repo"
	viewSubcommandConstant        = "view"
	pullRequestSubcommandConstant = "pr"
	listSubcommandConstant        = "list"
	jsonFlagConstant              = "--json"
	repoFlagConstant              = "--repo"
	stateFlagConstant             = "--state"
	baseFlagConstant              = "--base"
	limitFlagConstant             = "--limit"
	searchFlagConstant            = "--search"
	mergedStateValueConstant      = "merged"

	tokenEnvironmentVariableConstant     = "GH_TOKEN"
	repositoryFieldNameConstant          = "repository"
	baseBranchFieldNameConstant          = "base_branch"
	requiredValueMessageConstant         = "value required"
	executorNotConfiguredMessageConstant = "github cli executor not configured"
	emptyDefaultBranchMessageConstant    = "default branch not reported"

	pullRequestListLimitConstant        = 500
	repoViewJSONFieldsConstant          = "nameWithOwner,defaultBranchRef"
	pullRequestListJSONFieldsConstant   = "number,labels,mergeCommit,mergedAt"
	mergedSinceSearchTemplateConstant   = "merged:>=%s"
	mergedSinceSearchDateLayoutConstant = "2006-01-02"
	truncatedListingTemplateConstant    = "merged pull request listing truncated at %d entries; narrow the audited window"

	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"

	defaultBranchOperationNameConstant      = OperationName("ResolveDefaultBranch")
	mergedPullRequestsOperationNameConstant = OperationName("ListMergedPullRequestsSince")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// RepositoryMetadata contains key details resolved from GitHub.
type RepositoryMetadata struct {
	NameWithOwner string
	DefaultBranch string
}

// MergedPullRequest describes a pull request merged into the audited branch.
type MergedPullRequest struct {
	Number      int
	MergeCommit string
	Labels      []string
	MergedAt    time.Time
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor  GitHubCommandExecutor
	authToken string
}

// ErrExecutorNotConfigured indicates the client was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client. The authentication token, when
// provided, is injected into every invocation's environment.
func NewClient(executor GitHubCommandExecutor, authToken string) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor, authToken: strings.TrimSpace(authToken)}, nil
}

// ResolveDefaultBranch retrieves the repository's default branch name using gh repo view.
func (client *Client) ResolveDefaultBranch(executionContext context.Context, repository string) (string, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return "", InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			repoSubcommandConstant,
			viewSubcommandConstant,
			repositoryIdentifier,
			jsonFlagConstant,
			repoViewJSONFieldsConstant,
		},
		EnvironmentVariables: client.authEnvironment(),
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return "", OperationError{Operation: defaultBranchOperationNameConstant, Cause: executionError}
	}

	var response struct {
		NameWithOwner    string `json:"nameWithOwner"`
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return "", ResponseDecodingError{Operation: defaultBranchOperationNameConstant, Cause: decodingError}
	}

	defaultBranchName := strings.TrimSpace(response.DefaultBranchRef.Name)
	if len(defaultBranchName) == 0 {
		return "", OperationError{Operation: defaultBranchOperationNameConstant, Cause: errors.New(emptyDefaultBranchMessageConstant)}
	}

	return defaultBranchName, nil
}

// ListMergedPullRequestsSince enumerates pull requests merged into baseBranch
// at or after the provided instant, keyed by pull request number.
func (client *Client) ListMergedPullRequestsSince(executionContext context.Context, repository string, baseBranch string, since time.Time) (map[int]MergedPullRequest, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	trimmedBaseBranch := strings.TrimSpace(baseBranch)
	if len(trimmedBaseBranch) == 0 {
		return nil, InvalidInputError{FieldName: baseBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			pullRequestSubcommandConstant,
			listSubcommandConstant,
			repoFlagConstant,
			repositoryIdentifier,
			stateFlagConstant,
			mergedStateValueConstant,
			baseFlagConstant,
			trimmedBaseBranch,
			searchFlagConstant,
			fmt.Sprintf(mergedSinceSearchTemplateConstant, since.UTC().Format(mergedSinceSearchDateLayoutConstant)),
			jsonFlagConstant,
			pullRequestListJSONFieldsConstant,
			limitFlagConstant,
			strconv.Itoa(pullRequestListLimitConstant),
		},
		EnvironmentVariables: client.authEnvironment(),
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return nil, OperationError{Operation: mergedPullRequestsOperationNameConstant, Cause: executionError}
	}

	var response []struct {
		Number int `json:"number"`
		Labels []struct {
			Name string `json:"name"`
		} `json:"labels"`
		MergeCommit struct {
			OID string `json:"oid"`
		} `json:"mergeCommit"`
		MergedAt time.Time `json:"mergedAt"`
	}

	decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response)
	if decodingError != nil {
		return nil, ResponseDecodingError{Operation: mergedPullRequestsOperationNameConstant, Cause: decodingError}
	}

	// A response filling the limit is indistinguishable from a truncated one.
	if len(response) >= pullRequestListLimitConstant {
		return nil, OperationError{
			Operation: mergedPullRequestsOperationNameConstant,
			Cause:     fmt.Errorf(truncatedListingTemplateConstant, pullRequestListLimitConstant),
		}
	}

	pullRequests := make(map[int]MergedPullRequest, len(response))
	for _, pullRequestEntry := range response {
		// The merged:>= search operator has day granularity; trim the
		// same-day remainder here.
		if pullRequestEntry.MergedAt.Before(since) {
			continue
		}

		labels := make([]string, 0, len(pullRequestEntry.Labels))
		for _, labelEntry := range pullRequestEntry.Labels {
			labels = append(labels, labelEntry.Name)
		}

		pullRequests[pullRequestEntry.Number] = MergedPullRequest{
			Number:      pullRequestEntry.Number,
			MergeCommit: pullRequestEntry.MergeCommit.OID,
			Labels:      labels,
			MergedAt:    pullRequestEntry.MergedAt,
		}
	}

	return pullRequests, nil
}

func (client *Client) authEnvironment() map[string]string {
	if len(client.authToken) == 0 {
		return nil
	}
	return map[string]string{tokenEnvironmentVariableConstant: client.authToken}
}

package gitrepo

import (
	"context"
	"regexp"
	"sort"
	"strconv"
)

// Stable release branches are named YY.NUMBER, such as 24.3.
var stableBranchNamePattern = regexp.MustCompile(`^(\d{2})\.(\d+)$`)

// StableBranch describes a release branch and the commit where it forked from
// the primary branch.
type StableBranch struct {
	Name      string
	Year      int
	Number    int
	ForkPoint string
}

// ParseStableBranchName classifies a branch name as a stable release branch.
func ParseStableBranchName(branchName string) (StableBranch, bool) {
	nameComponents := stableBranchNamePattern.FindStringSubmatch(branchName)
	if nameComponents == nil {
		return StableBranch{}, false
	}

	yearValue, yearError := strconv.Atoi(nameComponents[1])
	numberValue, numberError := strconv.Atoi(nameComponents[2])
	if yearError != nil || numberError != nil {
		return StableBranch{}, false
	}

	return StableBranch{Name: branchName, Year: yearValue, Number: numberValue}, true
}

// SortStableBranches orders branches ascending by (year, number).
func SortStableBranches(branches []StableBranch) {
	sort.Slice(branches, func(firstIndex int, secondIndex int) bool {
		if branches[firstIndex].Year != branches[secondIndex].Year {
			return branches[firstIndex].Year < branches[secondIndex].Year
		}
		return branches[firstIndex].Number < branches[secondIndex].Number
	})
}

// ListStableBranches enumerates the remote's stable release branches with
// their fork points relative to the primary branch, ordered ascending by
// (year, number). The fork point is the merge base with the primary branch,
// which tolerates stable branches that have since drifted.
func (manager *RepositoryManager) ListStableBranches(executionContext context.Context, repositoryPath string, remoteName string, primaryBranchName string) ([]StableBranch, error) {
	branchNames, listError := manager.ListRemoteBranchNames(executionContext, repositoryPath, remoteName)
	if listError != nil {
		return nil, listError
	}

	primaryReference := RemoteReference(remoteName, primaryBranchName)

	var stableBranches []StableBranch
	for _, branchName := range branchNames {
		stableBranch, isStable := ParseStableBranchName(branchName)
		if !isStable {
			continue
		}

		forkPoint, mergeBaseError := manager.MergeBase(executionContext, repositoryPath, primaryReference, RemoteReference(remoteName, branchName))
		if mergeBaseError != nil {
			return nil, mergeBaseError
		}
		stableBranch.ForkPoint = forkPoint
		stableBranches = append(stableBranches, stableBranch)
	}

	SortStableBranches(stableBranches)
	return stableBranches, nil
}

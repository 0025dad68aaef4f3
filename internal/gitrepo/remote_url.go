package gitrepo

import (
	"fmt"
	"strings"
)

const (
	sshProtocolPrefixConstant       = "ssh://"
	scpStyleUserPrefixConstant      = "git@"
	httpsProtocolPrefixConstant     = "https://"
	sshUserDelimiterConstant        = "@"
	scpPathDelimiterConstant        = ":"
	pathSeparatorConstant           = "/"
	gitSuffixConstant               = ".git"
	ownerRepositoryTemplateConstant = "%s/%s"

	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
)

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// OwnerRepositoryFromRemoteURL extracts the "owner/repository" slug from an
// ssh, scp-style, or https git remote URL.
func OwnerRepositoryFromRemoteURL(remoteURL string) (string, error) {
	trimmedRemote := strings.TrimSpace(remoteURL)
	if len(trimmedRemote) == 0 {
		return "", RemoteURLParseError{Input: remoteURL, Message: invalidRemoteURLMessageConstant}
	}

	var repositoryPath string
	switch {
	case strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant):
		withoutScheme := strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant)
		hostSplitIndex := strings.Index(withoutScheme, pathSeparatorConstant)
		if userSplitIndex := strings.Index(withoutScheme, sshUserDelimiterConstant); userSplitIndex >= 0 && userSplitIndex < hostSplitIndex {
			withoutScheme = withoutScheme[userSplitIndex+1:]
			hostSplitIndex = strings.Index(withoutScheme, pathSeparatorConstant)
		}
		if hostSplitIndex == -1 {
			return "", RemoteURLParseError{Input: remoteURL, Message: invalidRemoteURLMessageConstant}
		}
		repositoryPath = withoutScheme[hostSplitIndex+1:]
	case strings.HasPrefix(trimmedRemote, scpStyleUserPrefixConstant):
		pathSplitIndex := strings.Index(trimmedRemote, scpPathDelimiterConstant)
		if pathSplitIndex == -1 {
			return "", RemoteURLParseError{Input: remoteURL, Message: invalidRemoteURLMessageConstant}
		}
		repositoryPath = trimmedRemote[pathSplitIndex+1:]
	case strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant):
		withoutScheme := strings.TrimPrefix(trimmedRemote, httpsProtocolPrefixConstant)
		hostSplitIndex := strings.Index(withoutScheme, pathSeparatorConstant)
		if hostSplitIndex == -1 {
			return "", RemoteURLParseError{Input: remoteURL, Message: invalidRemoteURLMessageConstant}
		}
		repositoryPath = withoutScheme[hostSplitIndex+1:]
	default:
		return "", RemoteURLParseError{Input: remoteURL, Message: invalidRemoteURLMessageConstant}
	}

	repositoryPath = strings.TrimSuffix(strings.Trim(repositoryPath, pathSeparatorConstant), gitSuffixConstant)
	pathSegments := strings.Split(repositoryPath, pathSeparatorConstant)
	if len(pathSegments) < 2 || len(pathSegments[0]) == 0 || len(pathSegments[1]) == 0 {
		return "", RemoteURLParseError{Input: remoteURL, Message: invalidRemoteURLMessageConstant}
	}

	return fmt.Sprintf(ownerRepositoryTemplateConstant, pathSegments[0], pathSegments[1]), nil
}

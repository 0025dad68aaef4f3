package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
)

var tildeWithPathSeparatorPrefix = tildeSymbolConstant + string(os.PathSeparator)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// RepositoryPathResolver expands user home shortcuts and normalizes repository paths.
type RepositoryPathResolver struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewRepositoryPathResolver constructs a resolver using the operating system home lookup.
func NewRepositoryPathResolver() *RepositoryPathResolver {
	return NewRepositoryPathResolverWithProvider(os.UserHomeDir)
}

// NewRepositoryPathResolverWithProvider constructs a resolver with a custom home directory provider.
func NewRepositoryPathResolverWithProvider(provider HomeDirectoryProvider) *RepositoryPathResolver {
	return &RepositoryPathResolver{homeDirectoryProvider: provider}
}

// Resolve trims the provided repository path, expands a leading tilde, and cleans the result.
// An empty input resolves to the current directory.
func (resolver *RepositoryPathResolver) Resolve(repositoryPath string) string {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return "."
	}

	expandedPath := resolver.expandHome(trimmedPath)
	return filepath.Clean(expandedPath)
}

func (resolver *RepositoryPathResolver) expandHome(candidatePath string) string {
	if candidatePath != tildeSymbolConstant &&
		!strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant) &&
		!strings.HasPrefix(candidatePath, tildeWithPathSeparatorPrefix) {
		return candidatePath
	}

	resolver.initializationGuard.Do(func() {
		if resolver.homeDirectoryProvider == nil {
			resolver.homeDirectoryProvider = os.UserHomeDir
		}
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})

	if resolver.homeDirectoryError != nil || len(resolver.homeDirectory) == 0 {
		return candidatePath
	}

	if candidatePath == tildeSymbolConstant {
		return resolver.homeDirectory
	}

	return filepath.Join(resolver.homeDirectory, candidatePath[2:])
}

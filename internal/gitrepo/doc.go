// Package gitrepo contains helpers for interrogating Git repositories.
//
// It exposes RepositoryManager for resolving revisions, enumerating remote
// branches, computing merge bases, and walking commit history, along with the
// stable release branch classification consumed by the hygiene audit.
package gitrepo

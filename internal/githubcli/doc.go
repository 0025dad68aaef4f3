// Package githubcli integrates with the GitHub CLI to resolve repository
// metadata and enumerate merged pull requests for the hygiene audit.
package githubcli

// Package hygiene audits release-branch hygiene: it verifies that commits on
// the primary branch between stable fork points originated from merged pull
// requests and that those pull requests carry a description label.
package hygiene

package githubauth_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/releasekit/relcheck/internal/githubauth"
)

const (
	testTokenSubtestTemplateConstant       = "%d_%s"
	testCaseExplicitTokenNameConstant      = "explicit_token_wins"
	testCaseExplicitWhitespaceNameConstant = "explicit_whitespace_falls_back"
	testCaseEnvironmentOrderNameConstant   = "cli_token_preferred_over_generic"
	testCaseGenericTokenNameConstant       = "generic_token_used_when_cli_absent"
	testCaseNoTokenNameConstant            = "no_token_available"
	testExplicitTokenValueConstant         = "explicit-token"
	testCLITokenValueConstant              = "cli-token"
	testGenericTokenValueConstant          = "generic-token"
)

func TestResolveToken(testInstance *testing.T) {
	testCases := []struct {
		name          string
		explicitToken string
		environment   map[string]string
		expectedToken string
		expectedFound bool
	}{
		{
			name:          testCaseExplicitTokenNameConstant,
			explicitToken: testExplicitTokenValueConstant,
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: testCLITokenValueConstant},
			expectedToken: testExplicitTokenValueConstant,
			expectedFound: true,
		},
		{
			name:          testCaseExplicitWhitespaceNameConstant,
			explicitToken: "   ",
			environment:   map[string]string{githubauth.EnvGitHubToken: testGenericTokenValueConstant},
			expectedToken: testGenericTokenValueConstant,
			expectedFound: true,
		},
		{
			name:          testCaseEnvironmentOrderNameConstant,
			explicitToken: "",
			environment: map[string]string{
				githubauth.EnvGitHubCLIToken: testCLITokenValueConstant,
				githubauth.EnvGitHubToken:    testGenericTokenValueConstant,
			},
			expectedToken: testCLITokenValueConstant,
			expectedFound: true,
		},
		{
			name:          testCaseGenericTokenNameConstant,
			explicitToken: "",
			environment:   map[string]string{githubauth.EnvGitHubAPIToken: testGenericTokenValueConstant},
			expectedToken: testGenericTokenValueConstant,
			expectedFound: true,
		},
		{
			name:          testCaseNoTokenNameConstant,
			explicitToken: "",
			environment:   map[string]string{},
			expectedFound: false,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testTokenSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			testInstance.Setenv(githubauth.EnvGitHubCLIToken, "")
			testInstance.Setenv(githubauth.EnvGitHubToken, "")
			testInstance.Setenv(githubauth.EnvGitHubAPIToken, "")
			for environmentKey, environmentValue := range testCase.environment {
				testInstance.Setenv(environmentKey, environmentValue)
			}

			resolvedToken, found := githubauth.ResolveToken(testCase.explicitToken)
			require.Equal(testInstance, testCase.expectedFound, found)
			require.Equal(testInstance, testCase.expectedToken, resolvedToken)
		})
	}
}

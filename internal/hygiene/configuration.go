package hygiene

import "strings"

const (
	defaultRemoteNameConstant        = "origin"
	defaultStableBranchCountConstant = 3
	defaultAutomationAuthorConstant  = "robot-clickhouse"

	remoteConfigurationKeyConstant           = "tools.audit.remote"
	branchCountConfigurationKeyConstant      = "tools.audit.branches"
	automationAuthorConfigurationKeyConstant = "tools.audit.automation_author"
)

// CommandConfiguration captures persistent settings for the audit command.
type CommandConfiguration struct {
	Remote           string `mapstructure:"remote"`
	Branches         int    `mapstructure:"branches"`
	AutomationAuthor string `mapstructure:"automation_author"`
}

// DefaultCommandConfiguration returns baseline configuration values for the audit command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Remote:           defaultRemoteNameConstant,
		Branches:         defaultStableBranchCountConstant,
		AutomationAuthor: defaultAutomationAuthorConstant,
	}
}

// DefaultConfigurationValues exposes the audit defaults keyed for the configuration loader.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		remoteConfigurationKeyConstant:           defaults.Remote,
		branchCountConfigurationKeyConstant:      defaults.Branches,
		automationAuthorConfigurationKeyConstant: defaults.AutomationAuthor,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Remote = strings.TrimSpace(configuration.Remote)
	if len(sanitized.Remote) == 0 {
		sanitized.Remote = defaultRemoteNameConstant
	}

	if sanitized.Branches <= 0 {
		sanitized.Branches = defaultStableBranchCountConstant
	}

	sanitized.AutomationAuthor = strings.TrimSpace(configuration.AutomationAuthor)
	if len(sanitized.AutomationAuthor) == 0 {
		sanitized.AutomationAuthor = defaultAutomationAuthorConstant
	}

	return sanitized
}

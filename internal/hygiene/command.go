package hygiene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/releasekit/relcheck/internal/execshell"
	"github.com/releasekit/relcheck/internal/githubauth"
	"github.com/releasekit/relcheck/internal/githubcli"
	"github.com/releasekit/relcheck/internal/gitrepo"
	"github.com/releasekit/relcheck/internal/utils"
	pathutils "github.com/releasekit/relcheck/internal/utils/path"
)

const (
	commandUseConstant              = "audit"
	commandShortDescriptionConstant = "Audit release-branch hygiene against merged pull requests"
	commandLongDescriptionConstant  = "audit verifies that commits between stable branch fork points and the primary branch head originate from labeled, merged pull requests."

	commandExecutionErrorTemplateConstant = "release hygiene audit failed: %w"
	unexpectedArgumentsMessageConstant    = "audit does not accept positional arguments"
	missingTokenMessageConstant           = "no GitHub token provided; use --token or set GH_TOKEN, GITHUB_TOKEN, or GITHUB_API_TOKEN"

	flagRepositoryNameConstant         = "repo"
	flagRepositoryShorthandConstant    = "r"
	flagRepositoryDescriptionConstant  = "Path to the root of the audited repository"
	flagRemoteNameConstant             = "remote"
	flagRemoteDescriptionConstant      = "Name of the remote pointing at the canonical repository"
	flagBranchCountNameConstant        = "number"
	flagBranchCountShorthandConstant   = "n"
	flagBranchCountDescriptionConstant = "Number of most recent stable branches to audit"
	flagTokenNameConstant              = "token"
	flagTokenDescriptionConstant       = "GitHub access token (falls back to GH_TOKEN, GITHUB_TOKEN, GITHUB_API_TOKEN)"

	defaultRepositoryPathConstant = "."

	configurationResolvedLogMessageConstant = "audit configuration resolved"
	configurationFileLogFieldConstant       = "config_file"
)

var (
	errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)
	errMissingToken        = errors.New(missingTokenMessageConstant)
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the persisted audit configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the Cobra command for the release hygiene audit.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Executor              CommandExecutor
}

// Build constructs the audit command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().StringP(flagRepositoryNameConstant, flagRepositoryShorthandConstant, defaultRepositoryPathConstant, flagRepositoryDescriptionConstant)
	command.Flags().String(flagRemoteNameConstant, defaultRemoteNameConstant, flagRemoteDescriptionConstant)
	command.Flags().IntP(flagBranchCountNameConstant, flagBranchCountShorthandConstant, defaultStableBranchCountConstant, flagBranchCountDescriptionConstant)
	command.Flags().String(flagTokenNameConstant, "", flagTokenDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	options, authToken, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	contextAccessor := utils.NewCommandContextAccessor()
	if configurationFilePath, configurationFileAvailable := contextAccessor.ConfigurationFilePath(command.Context()); configurationFileAvailable && len(configurationFilePath) > 0 {
		logger.Debug(
			configurationResolvedLogMessageConstant,
			zap.String(configurationFileLogFieldConstant, configurationFilePath),
		)
	}

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return managerError
	}

	hostingClient, clientError := githubcli.NewClient(executor, authToken)
	if clientError != nil {
		return clientError
	}

	service, serviceError := NewService(logger, repositoryManager, hostingClient,
		utils.NewFlushingWriter(command.OutOrStdout()), utils.NewFlushingWriter(command.ErrOrStderr()))
	if serviceError != nil {
		return serviceError
	}

	auditError := service.Run(command.Context(), options)
	if auditError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, auditError)
	}

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (CommandOptions, string, error) {
	configuration := builder.resolveConfiguration()

	remoteName := configuration.Remote
	if command.Flags().Changed(flagRemoteNameConstant) {
		remoteFlagValue, _ := command.Flags().GetString(flagRemoteNameConstant)
		trimmedRemoteName := strings.TrimSpace(remoteFlagValue)
		if len(trimmedRemoteName) > 0 {
			remoteName = trimmedRemoteName
		}
	}

	stableBranchCount := configuration.Branches
	if command.Flags().Changed(flagBranchCountNameConstant) {
		branchCountFlagValue, _ := command.Flags().GetInt(flagBranchCountNameConstant)
		if branchCountFlagValue > 0 {
			stableBranchCount = branchCountFlagValue
		}
	}

	repositoryFlagValue, _ := command.Flags().GetString(flagRepositoryNameConstant)
	pathResolver := pathutils.NewRepositoryPathResolver()
	repositoryPath := pathResolver.Resolve(repositoryFlagValue)

	tokenFlagValue, _ := command.Flags().GetString(flagTokenNameConstant)
	authToken, tokenFound := githubauth.ResolveToken(tokenFlagValue)
	if !tokenFound {
		return CommandOptions{}, "", errMissingToken
	}

	options := CommandOptions{
		RepositoryPath:    repositoryPath,
		RemoteName:        remoteName,
		StableBranchCount: stableBranchCount,
		AutomationAuthor:  configuration.AutomationAuthor,
	}

	return options, authToken, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner)
	if creationError != nil {
		return nil, creationError
	}

	return shellExecutor, nil
}

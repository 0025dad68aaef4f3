package utils_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/releasekit/relcheck/internal/utils"
)

const (
	testLoggerFactoryCaseSupportedTemplateConstant = "supported_level_%s_format_%s"
	testLoggerFactoryCaseUnsupportedLevelConstant  = "unsupported_log_level"
	testLoggerFactoryCaseUnsupportedFormatConstant = "unsupported_log_format"
	testLoggerFactorySubtestTemplateConstant       = "%d_%s"
	testInvalidLogLevelConstant                    = "verbose"
	testInvalidLogFormatConstant                   = "plain"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name               string
		requestedLogLevel  utils.LogLevel
		requestedLogFormat utils.LogFormat
		expectError        bool
	}{
		{
			name:               fmt.Sprintf(testLoggerFactoryCaseSupportedTemplateConstant, utils.LogLevelDebug, utils.LogFormatStructured),
			requestedLogLevel:  utils.LogLevelDebug,
			requestedLogFormat: utils.LogFormatStructured,
		},
		{
			name:               fmt.Sprintf(testLoggerFactoryCaseSupportedTemplateConstant, utils.LogLevelWarn, utils.LogFormatConsole),
			requestedLogLevel:  utils.LogLevelWarn,
			requestedLogFormat: utils.LogFormatConsole,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedLevelConstant,
			requestedLogLevel:  utils.LogLevel(testInvalidLogLevelConstant),
			requestedLogFormat: utils.LogFormatStructured,
			expectError:        true,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedFormatConstant,
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormat(testInvalidLogFormatConstant),
			expectError:        true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			loggerFactory := utils.NewLoggerFactory()

			logger, creationError := loggerFactory.CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)
			if testCase.expectError {
				require.Error(testInstance, creationError)
				require.Nil(testInstance, logger)
				return
			}

			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, logger)
		})
	}
}

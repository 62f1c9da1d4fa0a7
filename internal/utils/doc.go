// Package utils exposes reusable helpers consumed by multiple commands.
//
// ConfigurationLoader layers the embedded defaults, a YAML settings file and
// environment variables through Viper. LoggerFactory builds the zap loggers
// the CLI writes diagnostics and progress lines to.
package utils

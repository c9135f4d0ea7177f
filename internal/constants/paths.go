package constants

// Log file names.
const (
	// CLILogFileName is the name of the rotating CLI log file.
	// This file is located in ~/.relpack/logs/relpack.log
	CLILogFileName = "relpack.log"
)

// Log rotation settings for the CLI log file.
const (
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 14
	LogCompress   = true
)

// Configuration file names.
const (
	// GlobalConfigName is the name of the global configuration file inside RelpackHome.
	GlobalConfigName = "config.yaml"

	// ProjectConfigName is the name of the project configuration file in the project root.
	ProjectConfigName = ".relpack.yaml"

	// EnvPrefix is the prefix for environment variable overrides (RELPACK_OUTPUT_DIR, ...).
	EnvPrefix = "RELPACK"

	// HomeEnvVar overrides the location of RelpackHome.
	HomeEnvVar = "RELPACK_HOME"
)

// LockFilePrefix prefixes the per-output-directory lock file in the OS temp dir.
const LockFilePrefix = "relpack-"

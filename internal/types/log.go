package types

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

type RunMode string

const (
	RunModeDev  RunMode = "dev"
	RunModeProd RunMode = "prod"
	RunModeTest RunMode = "test"
)

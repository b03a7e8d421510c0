package constants

const (
	APPNAME    = "compartment"
	APPVERSION = "0.1.0"

	ProjectFileName      = "compartment.toml"
	ModuleFileExtension  = ".mjs"
	ScriptFileExtensions = ".js,.mjs,.ts"

	EnvLogLevel    = "COMPARTMENT_LOG_LEVEL"
	EnvDebug       = "COMPARTMENT_DEBUG"
	EnvOtelEnabled = "COMPARTMENT_OTEL_ENABLED"
	EnvOtelEndpoint = "COMPARTMENT_OTEL_ENDPOINT"
	EnvOtelProtocol = "COMPARTMENT_OTEL_PROTOCOL"
	EnvOtelTraceLink = "COMPARTMENT_OTEL_TRACE_LINK"
)

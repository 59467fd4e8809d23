package version

// Current defines the application version.
// It defaults to "dev" and is overwritten at build time using -ldflags.
var Current = "dev"

// AppName is the product name used in help text and telemetry.
const AppName = "Stowage"

// ServiceName identifies the process to OpenTelemetry.
const ServiceName = "stowage"

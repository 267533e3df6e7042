package logging

// SERVICE_KEY is the structured log key under which sub-loggers record which service emitted an event.
const SERVICE_KEY = "service"

// These constants are used to identify the various services that may do some logging
const (
	// COMPILATION_SERVICE is the constant used to identify the compilation package
	COMPILATION_SERVICE = "compilation"
	// DEPLOYMENT_SERVICE is the constant used to identify the deployment package
	DEPLOYMENT_SERVICE = "deployment"
	// PROVIDER_SERVICE is the constant used to identify the provider package
	PROVIDER_SERVICE = "provider"
	// CLI_SERVICE is the constant used to identify the cmd package
	CLI_SERVICE = "cli"
)

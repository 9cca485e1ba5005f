package main

// Exit codes used by all heatbot commands.
const (
	ExitSuccess        = 0 // Success
	ExitError          = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError    = 2 // Configuration error (invalid config, index not found)
	ExitBackendError   = 3 // Embedding backend not available
	ExitModelNotFound  = 4 // Embedding model not pulled
	ExitIntegrityError = 5 // Index artifacts are inconsistent
	ExitIndexStale     = 6 // Index is stale relative to the docs directory
)

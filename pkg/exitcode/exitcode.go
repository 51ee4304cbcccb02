// Package exitcode defines the process exit codes returned by the prekit CLI.
package exitcode

const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ValidationError = 3
	FileSystemError = 4
	NetworkError    = 5
	// InstallError means an environment could not be provisioned.
	InstallError = 6
	// HookFailure means at least one hook ran and reported a nonzero exit code.
	HookFailure = 10
	// Interrupted mirrors the shell convention for SIGINT.
	Interrupted = 130
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case NetworkError:
		return "Network error"
	case InstallError:
		return "Environment install error"
	case HookFailure:
		return "Hook failed"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}

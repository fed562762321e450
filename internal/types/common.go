package types

// VMState represents the power state of a virtual machine.
type VMState string

const (
	// VMStateRunning - the virtual machine is powered on.
	VMStateRunning VMState = "running"

	// VMStateStopped - the virtual machine is powered off.
	VMStateStopped VMState = "stopped"

	// VMStateUnknown - state not reported by the hypervisor.
	VMStateUnknown VMState = "unknown"
)

// String returns the string representation of the VM state.
func (s VMState) String() string {
	return string(s)
}

// DigestAlgorithm represents the checksum algorithm used for archive sidecar files.
type DigestAlgorithm string

const (
	// DigestSHA256 - SHA-256 digest
	DigestSHA256 DigestAlgorithm = "sha256"

	// DigestSHA512 - SHA-512 digest
	DigestSHA512 DigestAlgorithm = "sha512"

	// DigestBLAKE2b - BLAKE2b-256 digest
	DigestBLAKE2b DigestAlgorithm = "blake2b"
)

// String returns the string representation of the digest algorithm.
func (d DigestAlgorithm) String() string {
	return string(d)
}

// Valid reports whether the algorithm is one the checksum stage supports.
func (d DigestAlgorithm) Valid() bool {
	switch d {
	case DigestSHA256, DigestSHA512, DigestBLAKE2b:
		return true
	default:
		return false
	}
}

// LogLevel represents the logging level.
type LogLevel int

const (
	// LogLevelDebug - Debug logs (maximum detail)
	LogLevelDebug LogLevel = 5

	// LogLevelInfo - General information
	LogLevelInfo LogLevel = 4

	// LogLevelWarning - Warnings
	LogLevelWarning LogLevel = 3

	// LogLevelError - Errors
	LogLevelError LogLevel = 2

	// LogLevelCritical - Critical errors
	LogLevelCritical LogLevel = 1

	// LogLevelNone - No logs
	LogLevelNone LogLevel = 0
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelError:
		return "ERROR"
	case LogLevelCritical:
		return "CRITICAL"
	case LogLevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel maps a configuration string to a LogLevel.
// Unknown values fall back to LogLevelInfo.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LogLevelDebug
	case "info", "":
		return LogLevelInfo
	case "warning", "warn":
		return LogLevelWarning
	case "error":
		return LogLevelError
	case "critical":
		return LogLevelCritical
	case "none":
		return LogLevelNone
	default:
		return LogLevelInfo
	}
}

// Package types defines shared application data types.
package types

// ExitCode represents the application's exit codes.
type ExitCode int

const (
	// ExitSuccess - Execution completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGenericError - Unspecified generic error.
	ExitGenericError ExitCode = 1

	// ExitConfigError - Configuration error.
	ExitConfigError ExitCode = 2

	// ExitHypervisorError - Hypervisor unreachable or VM enumeration failed.
	ExitHypervisorError ExitCode = 3

	// ExitExportError - Error while exporting a virtual machine.
	ExitExportError ExitCode = 4

	// ExitArchiveError - Error while creating an archive.
	ExitArchiveError ExitCode = 5

	// ExitChecksumError - Error during checksum generation.
	ExitChecksumError ExitCode = 6

	// ExitUploadError - Error during upload to a remote target.
	ExitUploadError ExitCode = 7

	// ExitVerificationError - Error during remote integrity verification.
	ExitVerificationError ExitCode = 8

	// ExitRotationError - Error during backup rotation.
	ExitRotationError ExitCode = 9

	// ExitNotificationError - Error while sending notifications.
	ExitNotificationError ExitCode = 10

	// ExitPanicError - Unhandled panic caught.
	ExitPanicError ExitCode = 11
)

// String returns a human-readable description of the exit code.
func (e ExitCode) String() string {
	switch e {
	case ExitSuccess:
		return "success"
	case ExitGenericError:
		return "generic error"
	case ExitConfigError:
		return "configuration error"
	case ExitHypervisorError:
		return "hypervisor error"
	case ExitExportError:
		return "export error"
	case ExitArchiveError:
		return "archive error"
	case ExitChecksumError:
		return "checksum error"
	case ExitUploadError:
		return "upload error"
	case ExitVerificationError:
		return "verification error"
	case ExitRotationError:
		return "rotation error"
	case ExitNotificationError:
		return "notification error"
	case ExitPanicError:
		return "panic error"
	default:
		return "unknown error"
	}
}

// Int returns the exit code as a plain integer.
func (e ExitCode) Int() int {
	return int(e)
}

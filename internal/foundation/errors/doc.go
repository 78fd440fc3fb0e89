// Package errors provides the classified error primitives shared by every
// nickeltools command.
//
// A ClassifiedError carries a category (what kind of thing failed), a severity
// and free-form context. The CLI adapter turns the category into a process exit
// code so that CI pipelines can tell a failed compile expectation apart from a
// broken configuration file or a crashed external tool.
//
// Example usage:
//
//	err := errors.ToolchainError("build target failed").
//		WithContext("target", target).
//		WithCause(runErr).
//		Build()
package errors

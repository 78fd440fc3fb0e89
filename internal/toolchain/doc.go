// Package toolchain wraps the external build tools (cmake, conan and the
// benchmark binaries they drive) behind a small Runner interface so commands
// can be exercised without the real tools installed.
package toolchain

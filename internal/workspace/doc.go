// Package workspace manages scratch directories for out-of-tree builds.
//
// Ephemeral workspaces are unique temporary directories that are removed on
// Cleanup. Persistent workspaces wrap a caller-chosen directory that survives
// Cleanup, so a repeated `package test --build-dir build/test_package` can
// reuse the CMake cache.
package workspace

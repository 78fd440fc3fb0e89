// Package bench implements the compile-time benchmark harness: it turns
// .bench descriptors into CMake targets, renders benchmark templates for a
// configuration, and measures how long the compiler takes on them.
//
// A .bench file is a mustache template whose first two lines are comments:
//
//	// name: which1, which2
//	// 1, 5, 10, 50
//
// The first names the benchmark and its configurations ("whichs"), the second
// lists the N values to measure. Rendering exposes N and M as lists of {n}/{m}
// objects and sets the selected configuration to true.
package bench

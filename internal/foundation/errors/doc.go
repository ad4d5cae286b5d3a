// Package errors provides the classified error primitives used across docsite.
//
// A ClassifiedError carries a category (config, filesystem, build, ...), a
// severity and a retry hint alongside the usual message and cause. Errors are
// built through a small fluent builder:
//
//	err := errors.FileSystemError("write sitemap").
//		WithCause(ioErr).
//		WithContext("dir", outDir).
//		Build()
//
// The CLI adapter maps categories onto process exit codes.
package errors

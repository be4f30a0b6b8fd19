// Package errors provides the classified error primitives used across pub.
//
// Errors carry a category (config, transform, layout, filesystem, ...), a
// severity and structured context. Adapters translate them into process exit
// codes for the CLI and JSON payloads for HTTP.
//
//	err := errors.LayoutError("layout not found").
//		WithFile(path).
//		WithCause(statErr).
//		Build()
package errors

// Package internal contains the packages behind the tilde command that are
// not part of the public template API in pkg/.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - build: Concurrent template loading for whole-directory checks
//   - config: Configuration management with Viper and validation
//   - errors: Parse and render error types, positions and suggestions
//   - lexer: Tokenizer for the template grammar
//   - logging: Structured logging on log/slog
//   - observability: OpenTelemetry spans and metrics for parse and render
//   - store: SQLite template store usable as a path resolver
//   - testutils: Helpers shared by package tests
//   - version: Build information
//   - watcher: File system monitoring with debouncing and cache invalidation
//
// # Inter-Package Communication
//
//   - pkg/tilde parses with lexer and reports failures with errors
//   - config builds the accessor and stringifier registries that render
//     sessions use
//   - watcher turns file changes into template cache invalidations
//   - store implements the same resolver interface as the file system, so
//     templates and their includes load from either
//
// # Testing Strategy
//
//   - Table-driven unit tests with testify
//   - Property tests with gopter, behind the "property" build tag
//   - In-memory OpenTelemetry exporters and readers for telemetry tests
package internal

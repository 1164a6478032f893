// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Import Pipeline
//
//   - Resolver: raw level data for a Source (internal/importers/pipeline.go)
//   - Converter: raw container to entities.Level (internal/importers/pipeline.go)
//   - Exporter: single batch commit of converted levels (internal/importers/pipeline.go)
//   - Sink: progress events of a run (internal/importers/progress.go)
//
// ## Remote Level Server
//
//   - RemoteLookup: level containers by id and version (internal/importers/resolver.go)
//   - LevelSearcher: level search with a busy guard (internal/services/interfaces.go)
//
// ## Data Access
//
//   - LevelStore: write side of the levels database (internal/exporters/database.go)
//   - StorePinger: connection checks for /health (internal/http/health.go)
//
// # Adding a New Level Source
//
//  1. Add a Source implementation in internal/importers/item.go. The set is
//     sealed by the unexported isSource method, so it has to live there.
//
//  2. Handle it in SourceResolver.Resolve (internal/importers/resolver.go) and
//     map its failures onto ErrNotFound, ErrMalformed or ErrTransient.
//
//  3. If the source carries an identity the payload must match, extend
//     checkRequested in internal/importers/converter.go.
//
//  4. Expose it through ImportService.Enqueue from the CLI or the HTTP API.
//
// Compile-time checks for all implementations live in checks.go.
package interfaces

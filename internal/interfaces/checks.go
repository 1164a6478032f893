package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/pr2ps/levelimporter/internal/database/levels"
	"github.com/pr2ps/levelimporter/internal/exporters"
	"github.com/pr2ps/levelimporter/internal/http"
	"github.com/pr2ps/levelimporter/internal/importers"
	"github.com/pr2ps/levelimporter/internal/pr2"
	"github.com/pr2ps/levelimporter/internal/services"
)

// =============================================================================
// Import Pipeline
// =============================================================================

var _ importers.Resolver = (*importers.SourceResolver)(nil)
var _ importers.Converter = (*importers.LevelConverter)(nil)
var _ importers.Exporter = (*exporters.DatabaseExporter)(nil)

// Sink implementations
var _ importers.Sink = importers.SinkFunc(nil)
var _ importers.Sink = importers.LogSink{}
var _ importers.Sink = (*importers.Recorder)(nil)

// =============================================================================
// Remote Level Server
// =============================================================================

var _ importers.RemoteLookup = (*pr2.Client)(nil)
var _ services.LevelSearcher = (*pr2.Searcher)(nil)

// =============================================================================
// Data Access
// =============================================================================

var _ exporters.LevelStore = (*levels.Repository)(nil)
var _ http.StorePinger = (*services.ImportService)(nil)

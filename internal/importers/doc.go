// Package importers moves PR2 levels from their raw sources into canonical
// entities.Level values.
//
// # Flow
//
//	Queue → Pipeline.Run → (Resolver → Converter) per item → RunResult → Exporter
//
// A PendingItem pairs an Owner with a Source. Sources are closed to three
// kinds: LocalFile, RemoteByID and RemoteSearchResult. The Resolver returns
// the raw form-encoded container for a source; the Converter validates it and
// stamps the owner.
//
// Per-item failures (ErrNotFound, ErrMalformed, ErrTransient) are reported to
// the Sink as Error or Warning events and land in RunResult.Failed. They never
// stop the run. A successful item yields one Info event.
//
// The pipeline itself never writes. Callers hand RunResult.Converted to an
// Exporter in one call, and only if it is non-empty.
//
// # Example Usage
//
//	resolver := importers.NewSourceResolver(pr2Client, 0)
//	pipeline := importers.NewPipeline(resolver, importers.NewLevelConverter())
//
//	result, err := pipeline.Run(ctx, queue.Items(), importers.LogSink{})
//	if err != nil {
//		return err
//	}
//	if len(result.Converted) > 0 {
//		err = exporter.Import(ctx, result.Converted)
//	}
package importers

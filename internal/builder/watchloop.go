package builder

import (
	"context"

	"github.com/prismforge/gpubuild/internal/backend"
	"github.com/prismforge/gpubuild/internal/config"
	"github.com/prismforge/gpubuild/internal/watch"
)

// WatchLoop runs an initial build, then rebuilds once per change batch. It
// is a single cooperative loop: one batch triggers at most one rebuild, and
// no rebuild starts before the previous one finishes. Per-iteration failures
// are reported and the loop continues; only ctx cancellation (or the batch
// channel closing) ends it.
func (b *Builder) WatchLoop(ctx context.Context, cfg config.BuildConfig, artifact backend.Artifact, channel, specDir string, batches <-chan watch.Batch, report func(Result, error)) {
	report(b.Run(ctx, cfg, artifact, channel, specDir))

	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			b.logf("rebuilding after %d change(s)", len(batch))
			report(b.Run(ctx, cfg, artifact, channel, specDir))
		}
	}
}

package pipeline

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"songcatalog/internal/logger"
	"songcatalog/internal/lyrics"
	"songcatalog/internal/song"
)

// DefaultWorkers is the number of songs resolved at once.
const DefaultWorkers = 10

// Resolver resolves one song. *lyrics.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, s song.Song) lyrics.Match
}

// Dispatcher fans songs out over a bounded worker pool.
type Dispatcher struct {
	resolver Resolver
	workers  int
	logger   *logger.Logger

	// OnProgress is called after each song, from the worker goroutine.
	OnProgress func(done, total int)
}

func NewDispatcher(r Resolver, workers int, log *logger.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Dispatcher{resolver: r, workers: workers, logger: log}
}

// RunAll resolves every song and splits the outcomes into matches and
// unmatched songs. Both keep the input order whatever order the workers
// finish in. A panic while resolving one song marks that song unmatched.
func (d *Dispatcher) RunAll(ctx context.Context, songs []song.Song) ([]lyrics.Match, []song.Song) {
	results := make([]lyrics.Match, len(songs))
	var done atomic.Int32

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, s := range songs {
		g.Go(func() error {
			results[i] = d.resolve(ctx, s)
			n := done.Add(1)
			if d.OnProgress != nil {
				d.OnProgress(int(n), len(songs))
			}
			return nil
		})
	}
	g.Wait()

	var matches []lyrics.Match
	var errs []song.Song
	for _, m := range results {
		if m.Found {
			matches = append(matches, m)
		} else {
			errs = append(errs, m.Song)
		}
	}
	return matches, errs
}

func (d *Dispatcher) resolve(ctx context.Context, s song.Song) (m lyrics.Match) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic resolving %q: %v", s.Title, r)
			d.logger.Debug("%s", debug.Stack())
			m = lyrics.Match{Song: s}
		}
	}()
	return d.resolver.Resolve(ctx, s)
}

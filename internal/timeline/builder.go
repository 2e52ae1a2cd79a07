package timeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/storycore/internal/engine"
	"github.com/ivlev/storycore/internal/scene"
)

var ErrEmptyRange = errors.New("empty frame range")

// Build computes the keyframes of r on a snapshot of c, spreading frames over
// at most workers goroutines. Frames come back in frame order regardless of
// which worker produced them.
func Build(ctx context.Context, e *engine.Engine, c *scene.Composition, r Range, workers int) (*Timeline, error) {
	if r.Start < 0 || r.End < r.Start {
		return nil, fmt.Errorf("%w: %d..%d", ErrEmptyRange, r.Start, r.End)
	}
	if r.FPS <= 0 {
		r.FPS = engine.DefaultFPS
	}
	if workers < 1 {
		workers = 1
	}

	snapshot, err := c.Clone()
	if err != nil {
		return nil, fmt.Errorf("snapshot composition %s: %w", c.ID, err)
	}

	frames := make([]*engine.Keyframe, r.Len())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range frames {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			frames[i] = e.CreateVideoKeyframe(snapshot, r.Start+i, r.FPS)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Timeline{
		Version:       Version,
		CompositionID: snapshot.ID,
		FPS:           r.FPS,
		Resolution:    [2]int{snapshot.Resolution.Width, snapshot.Resolution.Height},
		Frames:        frames,
	}, nil
}

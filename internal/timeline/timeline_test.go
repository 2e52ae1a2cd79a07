package timeline

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/storycore/internal/animation"
	"github.com/ivlev/storycore/internal/engine"
	"github.com/ivlev/storycore/internal/scene"
)

func setup(t *testing.T) (*engine.Engine, *scene.Composition) {
	t.Helper()
	lib := animation.NewLibrary()
	lib.Register(&animation.Track{
		Name:   "rise",
		Easing: animation.EaseLinear,
		Keys: []animation.TrackKey{
			{Time: 0, Transform: animation.Transform{Position: mgl64.Vec3{0, 0, 4}, Scale: mgl64.Vec3{1, 1, 1}}},
			{Time: 1, Transform: animation.Transform{Position: mgl64.Vec3{0, 2, 4}, Scale: mgl64.Vec3{1, 1, 1}}},
		},
	})

	e := engine.NewEngine(engine.WithLogger(log.New(io.Discard)), engine.WithAnimations(lib))
	c := e.CreateComposition("shot-1", "timeline", "", &scene.Size{Width: 1280, Height: 720})
	e.AddObject(c, "balloon", "Balloon", mgl64.Vec3{0, 0, 4}, engine.WithAnimation("rise", 0))
	e.AddObject(c, "hill", "Hill", mgl64.Vec3{0, -1, 20})
	return e, c
}

func TestBuild(t *testing.T) {
	e, c := setup(t)

	tl, err := Build(context.Background(), e, c, Range{Start: 10, End: 34, FPS: 24}, 4)
	require.NoError(t, err)

	assert.Equal(t, Version, tl.Version)
	assert.Equal(t, "shot-1", tl.CompositionID)
	assert.Equal(t, [2]int{1280, 720}, tl.Resolution)
	require.Len(t, tl.Frames, 25)
	assert.InDelta(t, 25.0/24.0, tl.Duration(), 1e-9)

	for i, kf := range tl.Frames {
		assert.Equal(t, 10+i, kf.FrameNumber)
		assert.Equal(t, e.CreateVideoKeyframe(c, 10+i, 24), kf)
	}

	// the balloon rises, so it climbs the screen
	first := tl.Frames[0].Objects[0].ScreenPosition.Y
	last := tl.Frames[len(tl.Frames)-1].Objects[0].ScreenPosition.Y
	assert.Less(t, last, first)
}

func TestBuildUsesSnapshot(t *testing.T) {
	e, c := setup(t)
	tl, err := Build(context.Background(), e, c, Range{Start: 0, End: 0, FPS: 24}, 1)
	require.NoError(t, err)

	c.Objects[0].SetPosition(mgl64.Vec3{50, 50, 50})
	c.Objects = nil
	assert.Len(t, tl.Frames[0].Objects, 2)
}

func TestBuildInvalidRange(t *testing.T) {
	e, c := setup(t)

	for _, r := range []Range{{Start: 5, End: 4}, {Start: -1, End: 3}} {
		_, err := Build(context.Background(), e, c, r, 2)
		assert.True(t, errors.Is(err, ErrEmptyRange), "range %+v", r)
	}
}

func TestBuildDefaults(t *testing.T) {
	e, c := setup(t)
	tl, err := Build(context.Background(), e, c, Range{Start: 0, End: 2}, 0)
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultFPS, tl.FPS)
	assert.Len(t, tl.Frames, 3)
}

func TestBuildCancelled(t *testing.T) {
	e, c := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, e, c, Range{Start: 0, End: 100, FPS: 24}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteRead(t *testing.T) {
	e, c := setup(t)
	tl, err := Build(context.Background(), e, c, Range{Start: 0, End: 5, FPS: 24}, 2)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "timelines", "shot-1.yaml")
	require.NoError(t, Write(tl, path))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, tl.Version, got.Version)
	assert.Equal(t, tl.CompositionID, got.CompositionID)
	assert.Equal(t, tl.FPS, got.FPS)
	require.Len(t, got.Frames, len(tl.Frames))
	assert.Equal(t, tl.Frames[3].FrameNumber, got.Frames[3].FrameNumber)
	assert.Equal(t, tl.Frames[3].Objects[0].PlacementID, got.Frames[3].Objects[0].PlacementID)
	assert.InDelta(t, tl.Frames[3].Objects[0].ScreenPosition.Y, got.Frames[3].Objects[0].ScreenPosition.Y, 1e-9)
}

func TestGeneratePath(t *testing.T) {
	path := GeneratePath(filepath.Join("output", "timelines"), "shot-1")

	assert.True(t, strings.HasPrefix(filepath.Base(path), "timeline_shot-1_"))
	assert.Equal(t, ".yaml", filepath.Ext(path))
	assert.Equal(t, filepath.Join("output", "timelines"), filepath.Dir(path))
}

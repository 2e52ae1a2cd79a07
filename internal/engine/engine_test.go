package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/storycore/internal/config"
	"github.com/ivlev/storycore/internal/renderer"
	"github.com/ivlev/storycore/internal/scene"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	n := 0
	base := []Option{
		WithLogger(log.New(io.Discard)),
		WithOutputDir(t.TempDir()),
		WithClock(func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("p%07d", n)
		}),
	}
	return NewEngine(append(base, opts...)...)
}

func assertDepthSorted(t *testing.T, c *scene.Composition) {
	t.Helper()
	for i := 1; i < len(c.Objects); i++ {
		assert.LessOrEqual(t, c.Objects[i-1].Depth, c.Objects[i].Depth, "objects out of depth order at %d", i)
	}
}

func TestAddObjectOrdersBackToFront(t *testing.T) {
	e := newTestEngine(t)
	c := e.CreateComposition("c1", "street", "", nil)

	e.AddObject(c, "tree", "Tree", mgl64.Vec3{1, 0, 5})
	e.AddObject(c, "car", "Car", mgl64.Vec3{-1, 0, 2})

	require.Len(t, c.Objects, 2)
	assert.Equal(t, 2.0, c.Objects[0].Position.Z())
	assert.Equal(t, 5.0, c.Objects[1].Position.Z())
	assert.Equal(t, "car", c.Objects[0].ObjectID)
}

func TestAddObjectOptions(t *testing.T) {
	e := newTestEngine(t)
	c := e.CreateComposition("c1", "street", "", nil)

	o := e.AddObject(c, "lamp", "Lamp", mgl64.Vec3{0, 1, 3},
		WithRotation(mgl64.Vec3{0, 90, 0}),
		WithScale(mgl64.Vec3{2, 3, 2}),
		WithBoundingBox(mgl64.Vec3{0.5, 2, 0.5}),
		WithVisible(false),
		WithShadows(false, true),
		WithMaterialOverrides(map[string]any{"color": "red"}),
		WithAnimation("sway", 0.5),
		WithCustomData(map[string]any{"scene": 4}),
	)

	assert.Equal(t, "p0000001", o.PlacementID)
	assert.Equal(t, mgl64.Vec3{0, 90, 0}, o.Rotation)
	assert.Equal(t, mgl64.Vec3{2, 3, 2}, o.Scale)
	assert.Equal(t, mgl64.Vec3{0.5, 2, 0.5}, o.BoundingBox)
	assert.False(t, o.Visible)
	assert.False(t, o.CastShadow)
	assert.True(t, o.ReceiveShadow)
	assert.Equal(t, "red", o.MaterialOverrides["color"])
	assert.Equal(t, "sway", o.AnimationName)
	assert.Equal(t, 0.5, o.AnimationTime)
	assert.Equal(t, 4, o.CustomData["scene"])
	assert.Equal(t, 3.0, o.Depth)
}

func TestDefaultPlacementIDs(t *testing.T) {
	e := NewEngine(WithLogger(log.New(io.Discard)))
	c := e.CreateComposition("c1", "ids", "", nil)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		o := e.AddObject(c, "obj", "Obj", mgl64.Vec3{0, 0, float64(i)})
		assert.Len(t, o.PlacementID, 8)
		assert.False(t, seen[o.PlacementID], "duplicate id %s", o.PlacementID)
		seen[o.PlacementID] = true
	}
}

func TestDepthInvariantUnderRandomEdits(t *testing.T) {
	e := newTestEngine(t)
	c := e.CreateComposition("c1", "fuzz", "", nil)
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		if len(c.Objects) == 0 || r.Intn(2) == 0 {
			pos := mgl64.Vec3{r.Float64()*20 - 10, r.Float64()*20 - 10, r.Float64()*40 - 20}
			e.AddObject(c, "obj", "Obj", pos)
		} else {
			target := c.Objects[r.Intn(len(c.Objects))]
			pos := mgl64.Vec3{0, 0, r.Float64()*40 - 20}
			require.True(t, e.SetObjectTransform(c, target.PlacementID, &pos, nil, nil))
			assert.Equal(t, pos.Z(), target.Depth)
		}

		assertDepthSorted(t, c)
		for _, o := range c.Objects {
			require.Equal(t, o.Position.Z(), o.Depth)
		}
	}
}

func TestRemoveObject(t *testing.T) {
	e := newTestEngine(t)
	c := e.CreateComposition("c1", "remove", "", nil)
	a := e.AddObject(c, "a", "A", mgl64.Vec3{0, 0, 1})
	b := e.AddObject(c, "b", "B", mgl64.Vec3{0, 0, 2})

	assert.True(t, e.RemoveObject(c, a.PlacementID))
	assert.False(t, e.RemoveObject(c, a.PlacementID))
	assert.False(t, e.RemoveObject(c, "nope"))

	require.Len(t, c.Objects, 1)
	assert.Equal(t, b.PlacementID, c.Objects[0].PlacementID)
}

func TestSetObjectTransform(t *testing.T) {
	e := newTestEngine(t)
	c := e.CreateComposition("c1", "transform", "", nil)
	a := e.AddObject(c, "a", "A", mgl64.Vec3{0, 0, 1})
	b := e.AddObject(c, "b", "B", mgl64.Vec3{0, 0, 2})

	rot := mgl64.Vec3{10, 20, 30}
	require.True(t, e.SetObjectTransform(c, a.PlacementID, nil, &rot, nil))
	assert.Equal(t, rot, a.Rotation)
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, a.Scale)
	assert.Equal(t, 1.0, a.Depth)

	pos := mgl64.Vec3{3, 3, 9}
	scale := mgl64.Vec3{2, 2, 2}
	require.True(t, e.SetObjectTransform(c, a.PlacementID, &pos, nil, &scale))
	assert.Equal(t, 9.0, a.Depth)
	assert.Equal(t, scale, a.Scale)
	assert.Equal(t, []string{b.PlacementID, a.PlacementID}, []string{c.Objects[0].PlacementID, c.Objects[1].PlacementID})

	assert.False(t, e.SetObjectTransform(c, "missing", &pos, nil, nil))
}

func TestSetCamera(t *testing.T) {
	e := newTestEngine(t)
	c := e.CreateComposition("c1", "camera", "", nil)

	e.SetCamera(c, mgl64.Vec3{1, 2, 3}, mgl64.Vec3{4, 5, 6}, 60)
	assert.Equal(t, scene.Camera{Position: mgl64.Vec3{1, 2, 3}, Target: mgl64.Vec3{4, 5, 6}, FOV: 60}, c.Camera)
}

func TestCreateCompositionBackground(t *testing.T) {
	dir := t.TempDir()
	bg := filepath.Join(dir, "bg.png")
	f, err := os.Create(bg)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 640, 360))))
	require.NoError(t, f.Close())

	e := newTestEngine(t)

	tests := []struct {
		name       string
		background string
		resolution *scene.Size
		wantBg     scene.Size
		wantRes    scene.Size
	}{
		{"no background", "", nil, scene.DefaultSize(), scene.DefaultSize()},
		{"probed background", bg, nil, scene.Size{Width: 640, Height: 360}, scene.Size{Width: 640, Height: 360}},
		{"missing background", filepath.Join(dir, "missing.png"), nil, scene.DefaultSize(), scene.DefaultSize()},
		{"explicit resolution", bg, &scene.Size{Width: 1280, Height: 720}, scene.DefaultSize(), scene.Size{Width: 1280, Height: 720}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.CreateComposition("c", tt.name, tt.background, tt.resolution)
			assert.Equal(t, tt.wantBg, c.BackgroundSize)
			assert.Equal(t, tt.wantRes, c.Resolution)
			assert.Equal(t, tt.background, c.BackgroundImage)
			assert.Equal(t, "2026-10-17T12:00:00Z", c.CreatedAt)
		})
	}
}

func TestNewEngineFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Renderer = "open3d"
	cfg.ScaleModel = "projective"
	cfg.Width, cfg.Height = 800, 600
	cfg.DefaultFOV = 60

	e, err := NewEngineFromConfig(cfg, WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	assert.Equal(t, renderer.ModeOpen3D, e.RendererMode())
	assert.Equal(t, ScaleProjective, e.scaleModel)

	c := e.CreateComposition("c", "configured", "", nil)
	assert.Equal(t, scene.Size{Width: 800, Height: 600}, c.Resolution)
	assert.Equal(t, 60.0, c.Camera.FOV)

	t.Run("bad renderer", func(t *testing.T) {
		bad := config.Default()
		bad.Renderer = "blender"
		_, err := NewEngineFromConfig(bad)
		assert.ErrorIs(t, err, renderer.ErrUnknownMode)
	})

	t.Run("missing animation library", func(t *testing.T) {
		bad := config.Default()
		bad.AnimationsPath = filepath.Join(t.TempDir(), "none.yaml")
		_, err := NewEngineFromConfig(bad)
		assert.Error(t, err)
	})
}

type failingRenderer struct{ panics bool }

func (r *failingRenderer) Mode() renderer.Mode { return renderer.ModePanda3D }

func (r *failingRenderer) Render(ctx context.Context, c *scene.Composition, objects []renderer.ObjectDescriptor, outputPath string) error {
	if r.panics {
		panic("backend crashed")
	}
	return errors.New("device lost")
}

func TestRenderCompositionMock(t *testing.T) {
	e := newTestEngine(t)
	c := e.CreateComposition("c1", "render", "", nil)

	far := e.AddObject(c, "far", "Far", mgl64.Vec3{0, 0, 8})
	e.AddObject(c, "hidden", "Hidden", mgl64.Vec3{0, 0, 4}, WithVisible(false))
	near := e.AddObject(c, "near", "Near", mgl64.Vec3{0, 0, 1})

	res := e.RenderComposition(context.Background(), c, "")
	require.True(t, res.Success, res.ErrorMessage)

	require.Len(t, res.ObjectPositions, 2)
	assert.Equal(t, near.PlacementID, res.ObjectPositions[0].PlacementID)
	assert.Equal(t, far.PlacementID, res.ObjectPositions[1].PlacementID)
	assert.Len(t, c.Objects, 3, "hidden objects are skipped, not removed")

	assert.Equal(t, renderer.MockQualityScore, res.QualityScore)
	assert.Equal(t, renderer.MockRealismScore, res.RealismScore)
	assert.Equal(t, "mock", res.Mode)
	assert.Equal(t, "c1_20261017_120000.png", filepath.Base(res.OutputPath))

	info, err := os.Stat(filepath.Dir(res.OutputPath))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRenderCompositionExplicitPath(t *testing.T) {
	e := newTestEngine(t)
	c := e.CreateComposition("c1", "render", "", nil)
	out := filepath.Join(t.TempDir(), "nested", "frame.png")

	res := e.RenderComposition(context.Background(), c, out)
	require.True(t, res.Success)
	assert.Equal(t, out, res.OutputPath)
	assert.Empty(t, res.ObjectPositions)
}

func TestRenderCompositionFailures(t *testing.T) {
	for _, panics := range []bool{false, true} {
		t.Run(fmt.Sprintf("panics=%v", panics), func(t *testing.T) {
			e := newTestEngine(t, WithRenderer(&failingRenderer{panics: panics}))
			c := e.CreateComposition("c1", "broken", "", nil)
			e.AddObject(c, "a", "A", mgl64.Vec3{0, 0, 3})

			var res *renderer.CompositionResult
			require.NotPanics(t, func() { res = e.RenderComposition(context.Background(), c, "") })

			assert.False(t, res.Success)
			assert.NotEmpty(t, res.ErrorMessage)
			assert.Equal(t, "panda3d", res.Mode)
			assert.GreaterOrEqual(t, res.ProcessingTime, time.Duration(0))
			assert.Zero(t, res.QualityScore)
		})
	}
}

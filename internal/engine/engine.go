package engine

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/ivlev/storycore/internal/animation"
	"github.com/ivlev/storycore/internal/config"
	"github.com/ivlev/storycore/internal/renderer"
	"github.com/ivlev/storycore/internal/scene"
	"github.com/ivlev/storycore/internal/source"
	"github.com/ivlev/storycore/internal/system"
)

// Engine places objects in compositions, projects them to screen space and
// dispatches rendering. It holds no per-composition state; a composition is
// owned by its caller and must not be mutated from several goroutines at once.
type Engine struct {
	renderer   renderer.Renderer
	prober     source.Prober
	logger     *log.Logger
	animations *animation.Library
	scaleModel ScaleModel
	outputDir  string
	size       scene.Size
	fov        float64
	now        func() time.Time
	newID      func() string
}

type Option func(*Engine)

func WithRenderer(r renderer.Renderer) Option { return func(e *Engine) { e.renderer = r } }
func WithProber(p source.Prober) Option { return func(e *Engine) { e.prober = p } }
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }
func WithAnimations(l *animation.Library) Option { return func(e *Engine) { e.animations = l } }
func WithScaleModel(m ScaleModel) Option { return func(e *Engine) { e.scaleModel = m } }
func WithOutputDir(dir string) Option { return func(e *Engine) { e.outputDir = dir } }
func WithDefaults(size scene.Size, fov float64) Option {
	return func(e *Engine) {
		e.size = size
		e.fov = fov
	}
}

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }
func WithIDGenerator(newID func() string) Option { return func(e *Engine) { e.newID = newID } }

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		prober:     source.AutoProber{},
		logger:     system.Logger(),
		scaleModel: ScaleInverseDistance,
		outputDir:  filepath.Join("output", "compositions"),
		size:       scene.DefaultSize(),
		fov:        scene.DefaultFOV,
		now:        time.Now,
		newID:      newPlacementID,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.renderer == nil {
		e.renderer = renderer.NewRenderer(renderer.ModeMock, e.logger)
	}
	return e
}

// NewEngineFromConfig builds an engine from cfg plus any extra options.
func NewEngineFromConfig(cfg *config.Config, extra ...Option) (*Engine, error) {
	mode, err := renderer.ParseMode(cfg.Renderer)
	if err != nil {
		return nil, err
	}
	model, err := ParseScaleModel(cfg.ScaleModel)
	if err != nil {
		return nil, err
	}

	logger := system.Logger()
	opts := []Option{
		WithLogger(logger),
		WithRenderer(renderer.NewRenderer(mode, logger)),
		WithScaleModel(model),
		WithOutputDir(cfg.OutputDir),
		WithDefaults(scene.Size{Width: cfg.Width, Height: cfg.Height}, cfg.DefaultFOV),
	}
	if cfg.AnimationsPath != "" {
		lib, err := animation.LoadLibrary(cfg.AnimationsPath)
		if err != nil {
			return nil, fmt.Errorf("load animations: %w", err)
		}
		opts = append(opts, WithAnimations(lib))
	}
	return NewEngine(append(opts, extra...)...), nil
}

func (e *Engine) RendererMode() renderer.Mode { return e.renderer.Mode() }

func newPlacementID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (e *Engine) timestamp() string {
	return e.now().Format(time.RFC3339)
}

func (e *Engine) touch(c *scene.Composition) {
	c.UpdatedAt = e.timestamp()
}

// CreateComposition starts an empty composition. When a background is given
// without an explicit resolution, the background is probed for its size; a
// failed probe falls back to the engine's default size (1920x1080 unless configured).
func (e *Engine) CreateComposition(id, name, backgroundPath string, resolution *scene.Size) *scene.Composition {
	c := scene.NewComposition(id, name)
	c.BackgroundImage = backgroundPath
	c.BackgroundSize = e.size
	c.Camera.FOV = e.fov
	ts := e.timestamp()
	c.CreatedAt, c.UpdatedAt = ts, ts

	if backgroundPath != "" && resolution == nil {
		c.BackgroundSize = e.probeBackground(backgroundPath)
	}

	if resolution != nil {
		c.Resolution = *resolution
	} else {
		c.Resolution = c.BackgroundSize
	}

	e.logger.Info("[*] composition created", "id", id, "name", name,
		"resolution", fmt.Sprintf("%dx%d", c.Resolution.Width, c.Resolution.Height))
	return c
}

func (e *Engine) probeBackground(path string) scene.Size {
	if e.prober == nil {
		return e.size
	}
	w, h, err := e.prober.Dimensions(path)
	if err != nil || w <= 0 || h <= 0 {
		e.logger.Warn("[!] could not read background size, using default", "path", path, "err", err)
		return e.size
	}
	return scene.Size{Width: w, Height: h}
}

// PlacementOption customises a placement created by AddObject.
type PlacementOption func(*scene.ObjectPlacement)

func WithRotation(r mgl64.Vec3) PlacementOption {
	return func(o *scene.ObjectPlacement) { o.Rotation = r }
}

func WithScale(s mgl64.Vec3) PlacementOption {
	return func(o *scene.ObjectPlacement) { o.Scale = s }
}

func WithBoundingBox(b mgl64.Vec3) PlacementOption {
	return func(o *scene.ObjectPlacement) { o.BoundingBox = b }
}

func WithVisible(v bool) PlacementOption {
	return func(o *scene.ObjectPlacement) { o.Visible = v }
}

func WithShadows(cast, receive bool) PlacementOption {
	return func(o *scene.ObjectPlacement) {
		o.CastShadow = cast
		o.ReceiveShadow = receive
	}
}

func WithMaterialOverrides(m map[string]any) PlacementOption {
	return func(o *scene.ObjectPlacement) { o.MaterialOverrides = m }
}

func WithAnimation(name string, tm float64) PlacementOption {
	return func(o *scene.ObjectPlacement) {
		o.AnimationName = name
		o.AnimationTime = tm
	}
}

func WithCustomData(d map[string]any) PlacementOption {
	return func(o *scene.ObjectPlacement) { o.CustomData = d }
}

// AddObject appends a new placement and re-sorts the composition back to front.
// Positions are not validated and overlapping objects are allowed.
func (e *Engine) AddObject(c *scene.Composition, objectID, objectName string, position mgl64.Vec3, opts ...PlacementOption) *scene.ObjectPlacement {
	o := scene.NewObjectPlacement(e.newID(), objectID, objectName, position)
	for _, opt := range opts {
		opt(o)
	}
	// options must not be able to desync the sort key
	o.Depth = o.Position.Z()

	c.Objects = append(c.Objects, o)
	c.SortByDepth()
	e.touch(c)

	e.logger.Debug("[*] object added", "composition", c.ID, "placement", o.PlacementID, "object", objectName, "depth", o.Depth)
	return o
}

// RemoveObject drops every placement with the given id and reports whether any was removed.
func (e *Engine) RemoveObject(c *scene.Composition, placementID string) bool {
	before := len(c.Objects)
	kept := c.Objects[:0]
	for _, o := range c.Objects {
		if o.PlacementID != placementID {
			kept = append(kept, o)
		}
	}
	for i := len(kept); i < before; i++ {
		c.Objects[i] = nil
	}
	c.Objects = kept

	if len(c.Objects) == before {
		e.logger.Warn("[!] placement not found", "composition", c.ID, "placement", placementID)
		return false
	}
	e.touch(c)
	return true
}

// SetObjectTransform updates the non-nil parts of a placement's transform.
func (e *Engine) SetObjectTransform(c *scene.Composition, placementID string, position, rotation, scale *mgl64.Vec3) bool {
	o := c.Find(placementID)
	if o == nil {
		e.logger.Warn("[!] placement not found", "composition", c.ID, "placement", placementID)
		return false
	}

	if position != nil {
		o.SetPosition(*position)
	}
	if rotation != nil {
		o.Rotation = *rotation
	}
	if scale != nil {
		o.Scale = *scale
	}

	c.SortByDepth()
	e.touch(c)
	return true
}

// SetCamera replaces the camera. Nothing is validated; a camera whose target
// equals its position is handled by the projection fallback.
func (e *Engine) SetCamera(c *scene.Composition, position, target mgl64.Vec3, fov float64) {
	c.Camera = scene.Camera{Position: position, Target: target, FOV: fov}
	e.touch(c)
}

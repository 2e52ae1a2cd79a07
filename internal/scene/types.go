package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jinzhu/copier"
)

const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
	DefaultFOV    = 45.0
)

// Size is a pixel extent.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is used whenever a background or output size is unknown.
func DefaultSize() Size {
	return Size{Width: DefaultWidth, Height: DefaultHeight}
}

// Camera is a look-at camera. Up is always world +Y, so roll is not supported.
type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	FOV      float64 // degrees
}

// DefaultCamera sits ten units in front of the origin looking at it.
func DefaultCamera() Camera {
	return Camera{
		Position: mgl64.Vec3{0, 0, -10},
		Target:   mgl64.Vec3{0, 0, 0},
		FOV:      DefaultFOV,
	}
}

// Lighting is descriptive metadata for the rendering backend.
type Lighting struct {
	AmbientIntensity float64
	Lights           []map[string]any
}

// PostProcessing holds fog settings. Nothing here is computed by the engine.
type PostProcessing struct {
	FogEnabled bool
	FogColor   [3]float64
	FogDensity float64
}

func defaultPostProcessing() PostProcessing {
	return PostProcessing{
		FogColor:   [3]float64{0.5, 0.5, 0.5},
		FogDensity: 0.01,
	}
}

// ObjectPlacement is one instance of an externally managed 3D asset inside a composition.
type ObjectPlacement struct {
	PlacementID string
	ObjectID    string
	ObjectName  string

	Position    mgl64.Vec3
	Rotation    mgl64.Vec3 // Euler degrees
	Scale       mgl64.Vec3
	BoundingBox mgl64.Vec3

	Visible       bool
	CastShadow    bool
	ReceiveShadow bool

	// Depth is the world Z of Position at its last update and is the compositing sort key.
	Depth float64

	MaterialOverrides map[string]any
	AnimationName     string
	AnimationTime     float64
	CustomData        map[string]any
}

// NewObjectPlacement returns a placement with the model defaults and Depth derived from position.
func NewObjectPlacement(placementID, objectID, objectName string, position mgl64.Vec3) *ObjectPlacement {
	return &ObjectPlacement{
		PlacementID:       placementID,
		ObjectID:          objectID,
		ObjectName:        objectName,
		Position:          position,
		Scale:             mgl64.Vec3{1, 1, 1},
		BoundingBox:       mgl64.Vec3{1, 1, 1},
		Visible:           true,
		CastShadow:        true,
		ReceiveShadow:     true,
		Depth:             position.Z(),
		MaterialOverrides: map[string]any{},
		CustomData:        map[string]any{},
	}
}

// SetPosition moves the placement and keeps Depth in step.
func (o *ObjectPlacement) SetPosition(p mgl64.Vec3) {
	o.Position = p
	o.Depth = p.Z()
}

// Composition is a camera, a background and a depth-ordered list of placements.
type Composition struct {
	ID              string
	Name            string
	BackgroundImage string
	BackgroundSize  Size

	Camera  Camera
	Objects []*ObjectPlacement

	Lighting       Lighting
	PostProcessing PostProcessing

	Resolution Size
	CreatedAt  string
	UpdatedAt  string
}

// NewComposition returns an empty composition with default camera, lighting and sizes.
func NewComposition(id, name string) *Composition {
	return &Composition{
		ID:             id,
		Name:           name,
		BackgroundSize: DefaultSize(),
		Camera:         DefaultCamera(),
		Objects:        []*ObjectPlacement{},
		Lighting: Lighting{
			AmbientIntensity: 0.3,
			Lights:           []map[string]any{},
		},
		PostProcessing: defaultPostProcessing(),
		Resolution:     DefaultSize(),
	}
}

// SortByDepth orders objects back to front. Equal depths keep their relative order.
func (c *Composition) SortByDepth() {
	sort.SliceStable(c.Objects, func(i, j int) bool {
		return c.Objects[i].Depth < c.Objects[j].Depth
	})
}

// Find returns the first placement with the given id.
func (c *Composition) Find(placementID string) *ObjectPlacement {
	for _, o := range c.Objects {
		if o.PlacementID == placementID {
			return o
		}
	}
	return nil
}

// VisibleObjects returns the visible placements in depth order.
func (c *Composition) VisibleObjects() []*ObjectPlacement {
	visible := make([]*ObjectPlacement, 0, len(c.Objects))
	for _, o := range c.Objects {
		if o.Visible {
			visible = append(visible, o)
		}
	}
	return visible
}

// Clone deep-copies the composition, including placements and pass-through maps.
func (c *Composition) Clone() (*Composition, error) {
	clone := &Composition{}
	if err := copier.CopyWithOption(clone, c, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return clone, nil
}

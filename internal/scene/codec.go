package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
)

// Wire types mirror the exchange format. Pointer fields distinguish "absent"
// from zero so that decoding can fill in the model defaults.

type compositionFile struct {
	CompositionID   string           `json:"composition_id"`
	Name            string           `json:"name"`
	BackgroundImage *string          `json:"background_image"`
	BackgroundSize  *[2]int          `json:"background_size,omitempty"`
	Camera          *cameraFile      `json:"camera,omitempty"`
	Objects         []objectFile     `json:"objects"`
	Lighting        *lightingFile    `json:"lighting,omitempty"`
	PostProcessing  *postProcessFile `json:"post_processing,omitempty"`
	Resolution      *[2]int          `json:"resolution,omitempty"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
}

type cameraFile struct {
	Position *[3]float64 `json:"position,omitempty"`
	Target   *[3]float64 `json:"target,omitempty"`
	FOV      *float64    `json:"fov,omitempty"`
}

type objectFile struct {
	PlacementID       string         `json:"placement_id"`
	ObjectID          string         `json:"object_id"`
	ObjectName        string         `json:"object_name"`
	Position          [3]float64     `json:"position"`
	Rotation          *[3]float64    `json:"rotation,omitempty"`
	Scale             *[3]float64    `json:"scale,omitempty"`
	BoundingBox       *[3]float64    `json:"bounding_box,omitempty"`
	Visible           *bool          `json:"visible,omitempty"`
	CastShadow        *bool          `json:"cast_shadow,omitempty"`
	ReceiveShadow     *bool          `json:"receive_shadow,omitempty"`
	Depth             *float64       `json:"depth,omitempty"`
	Animation         *animationFile `json:"animation,omitempty"`
	MaterialOverrides map[string]any `json:"material_overrides,omitempty"`
	CustomData        map[string]any `json:"custom_data,omitempty"`
}

type animationFile struct {
	Name *string `json:"name"`
	Time float64 `json:"time"`
}

type lightingFile struct {
	AmbientIntensity *float64         `json:"ambient_intensity,omitempty"`
	Lights           []map[string]any `json:"lights"`
}

type postProcessFile struct {
	FogEnabled bool        `json:"fog_enabled"`
	FogColor   *[3]float64 `json:"fog_color,omitempty"`
	FogDensity *float64    `json:"fog_density,omitempty"`
}

// Encode writes c as indented JSON.
func Encode(w io.Writer, c *Composition) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toFile(c))
}

// Decode reads a composition. Absent optional fields take model defaults and
// a missing object depth is derived from the object's position.
func Decode(r io.Reader) (*Composition, error) {
	var f compositionFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode composition: %w", err)
	}
	return fromFile(&f), nil
}

// WriteFile encodes c to path.
func WriteFile(path string, c *Composition) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes the composition stored at path.
func ReadFile(path string) (*Composition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

func toFile(c *Composition) *compositionFile {
	f := &compositionFile{
		CompositionID:  c.ID,
		Name:           c.Name,
		BackgroundSize: &[2]int{c.BackgroundSize.Width, c.BackgroundSize.Height},
		Camera: &cameraFile{
			Position: vecPtr(c.Camera.Position),
			Target:   vecPtr(c.Camera.Target),
			FOV:      &c.Camera.FOV,
		},
		Objects: make([]objectFile, 0, len(c.Objects)),
		Lighting: &lightingFile{
			AmbientIntensity: &c.Lighting.AmbientIntensity,
			Lights:           c.Lighting.Lights,
		},
		PostProcessing: &postProcessFile{
			FogEnabled: c.PostProcessing.FogEnabled,
			FogColor:   &c.PostProcessing.FogColor,
			FogDensity: &c.PostProcessing.FogDensity,
		},
		Resolution: &[2]int{c.Resolution.Width, c.Resolution.Height},
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	if c.BackgroundImage != "" {
		bg := c.BackgroundImage
		f.BackgroundImage = &bg
	}
	if f.Lighting.Lights == nil {
		f.Lighting.Lights = []map[string]any{}
	}

	for _, o := range c.Objects {
		visible, cast, receive, depth := o.Visible, o.CastShadow, o.ReceiveShadow, o.Depth
		of := objectFile{
			PlacementID:       o.PlacementID,
			ObjectID:          o.ObjectID,
			ObjectName:        o.ObjectName,
			Position:          o.Position,
			Rotation:          vecPtr(o.Rotation),
			Scale:             vecPtr(o.Scale),
			BoundingBox:       vecPtr(o.BoundingBox),
			Visible:           &visible,
			CastShadow:        &cast,
			ReceiveShadow:     &receive,
			Depth:             &depth,
			Animation:         &animationFile{Time: o.AnimationTime},
			MaterialOverrides: o.MaterialOverrides,
			CustomData:        o.CustomData,
		}
		if o.AnimationName != "" {
			name := o.AnimationName
			of.Animation.Name = &name
		}
		f.Objects = append(f.Objects, of)
	}
	return f
}

func fromFile(f *compositionFile) *Composition {
	c := NewComposition(f.CompositionID, f.Name)
	c.CreatedAt = f.CreatedAt
	c.UpdatedAt = f.UpdatedAt
	if f.BackgroundImage != nil {
		c.BackgroundImage = *f.BackgroundImage
	}
	if f.BackgroundSize != nil {
		c.BackgroundSize = Size{Width: f.BackgroundSize[0], Height: f.BackgroundSize[1]}
	}
	if f.Resolution != nil {
		c.Resolution = Size{Width: f.Resolution[0], Height: f.Resolution[1]}
	}

	if cam := f.Camera; cam != nil {
		if cam.Position != nil {
			c.Camera.Position = *cam.Position
		}
		if cam.Target != nil {
			c.Camera.Target = *cam.Target
		}
		if cam.FOV != nil {
			c.Camera.FOV = *cam.FOV
		}
	}

	if l := f.Lighting; l != nil {
		if l.AmbientIntensity != nil {
			c.Lighting.AmbientIntensity = *l.AmbientIntensity
		}
		if l.Lights != nil {
			c.Lighting.Lights = l.Lights
		}
	}

	if pp := f.PostProcessing; pp != nil {
		c.PostProcessing.FogEnabled = pp.FogEnabled
		if pp.FogColor != nil {
			c.PostProcessing.FogColor = *pp.FogColor
		}
		if pp.FogDensity != nil {
			c.PostProcessing.FogDensity = *pp.FogDensity
		}
	}

	for _, of := range f.Objects {
		o := NewObjectPlacement(of.PlacementID, of.ObjectID, of.ObjectName, of.Position)
		if of.Rotation != nil {
			o.Rotation = *of.Rotation
		}
		if of.Scale != nil {
			o.Scale = *of.Scale
		}
		if of.BoundingBox != nil {
			o.BoundingBox = *of.BoundingBox
		}
		if of.Visible != nil {
			o.Visible = *of.Visible
		}
		if of.CastShadow != nil {
			o.CastShadow = *of.CastShadow
		}
		if of.ReceiveShadow != nil {
			o.ReceiveShadow = *of.ReceiveShadow
		}
		if of.Depth != nil {
			o.Depth = *of.Depth
		}
		if a := of.Animation; a != nil {
			if a.Name != nil {
				o.AnimationName = *a.Name
			}
			o.AnimationTime = a.Time
		}
		if of.MaterialOverrides != nil {
			o.MaterialOverrides = of.MaterialOverrides
		}
		if of.CustomData != nil {
			o.CustomData = of.CustomData
		}
		c.Objects = append(c.Objects, o)
	}
	c.SortByDepth()

	return c
}

func vecPtr(v mgl64.Vec3) *[3]float64 {
	a := [3]float64(v)
	return &a
}

package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ivlev/storycore/internal/renderer"
	"github.com/ivlev/storycore/internal/scene"
)

const (
	// Objects closer than this along the view axis collapse to the screen centre.
	minProjectDistance = 0.1
	// Objects closer than this to the camera get a neutral scale.
	minScaleDistance = 0.1
)

var (
	worldUp        = mgl64.Vec3{0, 1, 0}
	defaultForward = mgl64.Vec3{0, 0, 1}
)

// ScaleModel selects how ScaleFactor turns distance into on-screen scale.
type ScaleModel int

const (
	// ScaleInverseDistance is scale.y / distance * screenHeight / 10, independent of FOV.
	ScaleInverseDistance ScaleModel = iota
	// ScaleProjective is the height in pixels of a unit object under the camera's FOV.
	ScaleProjective
)

func (m ScaleModel) String() string {
	if m == ScaleProjective {
		return "projective"
	}
	return "inverse-distance"
}

func ParseScaleModel(s string) (ScaleModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inverse-distance":
		return ScaleInverseDistance, nil
	case "projective":
		return ScaleProjective, nil
	}
	return ScaleInverseDistance, fmt.Errorf("unknown scale model %q", s)
}

// cameraBasis returns forward, right and up. A camera looking at its own
// position has no direction; it is treated as looking down +Z.
func cameraBasis(cam scene.Camera) (forward, right, up mgl64.Vec3) {
	forward = cam.Target.Sub(cam.Position)
	if l := forward.Len(); l > 0 {
		forward = forward.Mul(1 / l)
	} else {
		forward = defaultForward
	}

	right = mgl64.Vec3{-forward.Z(), 0, forward.X()}
	if l := right.Len(); l > 0 {
		right = right.Mul(1 / l)
	}
	return forward, right, worldUp
}

// ScreenPosition projects a placement into pixel coordinates. Objects behind
// or almost on top of the camera map to the screen centre, as does everything
// when the camera's FOV is not positive.
func (e *Engine) ScreenPosition(c *scene.Composition, o *scene.ObjectPlacement, width, height float64) (float64, float64) {
	return projectPoint(c.Camera, o.Position, width, height)
}

func projectPoint(cam scene.Camera, p mgl64.Vec3, width, height float64) (float64, float64) {
	forward, right, up := cameraBasis(cam)

	rel := p.Sub(cam.Position)
	distance := rel.Dot(forward)
	if distance <= minProjectDistance {
		return width / 2, height / 2
	}

	tanHalf := math.Tan(mgl64.DegToRad(cam.FOV) / 2)
	if tanHalf <= 0 {
		// a zero or negative fov has no frustum
		return width / 2, height / 2
	}
	aspect := 1.0
	if height != 0 {
		aspect = width / height
	}

	ndcX := rel.Dot(right) / (distance * tanHalf * aspect)
	ndcY := rel.Dot(up) / (distance * tanHalf)

	return (1 + ndcX) * width / 2, (1 - ndcY) * height / 2
}

// ScaleFactor approximates how large a placement appears at its distance from the camera.
func (e *Engine) ScaleFactor(c *scene.Composition, o *scene.ObjectPlacement, screenHeight float64) float64 {
	return scaleAt(e.scaleModel, c.Camera, o.Position, o.Scale, screenHeight)
}

func scaleAt(model ScaleModel, cam scene.Camera, position, scale mgl64.Vec3, screenHeight float64) float64 {
	distance := position.Sub(cam.Position).Len()
	if distance < minScaleDistance {
		return 1.0
	}

	if model == ScaleProjective {
		tanHalf := math.Tan(mgl64.DegToRad(cam.FOV) / 2)
		if tanHalf <= 0 {
			return 1.0
		}
		return scale.Y() * screenHeight / (2 * distance * tanHalf)
	}
	return (scale.Y() / distance) * (screenHeight / 10)
}

// Describe builds the backend descriptor of a placement for a screen of the given size.
func (e *Engine) Describe(c *scene.Composition, o *scene.ObjectPlacement, width, height float64) renderer.ObjectDescriptor {
	x, y := e.ScreenPosition(c, o, width, height)
	return renderer.ObjectDescriptor{
		PlacementID:    o.PlacementID,
		ScreenPosition: renderer.ScreenPosition{X: x, Y: y},
		ScaleFactor:    e.ScaleFactor(c, o, height),
		Depth:          o.Depth,
		Rotation:       o.Rotation,
		BoundingBox:    o.BoundingBox,
	}
}

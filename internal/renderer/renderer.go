package renderer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ivlev/storycore/internal/scene"
)

// Mode identifies a rendering backend.
type Mode int

const (
	ModeMock Mode = iota
	ModePanda3D
	ModeOpen3D
)

var ErrUnknownMode = errors.New("unknown renderer mode")

func (m Mode) String() string {
	switch m {
	case ModePanda3D:
		return "panda3d"
	case ModeOpen3D:
		return "open3d"
	default:
		return "mock"
	}
}

// ParseMode accepts "mock", "panda3d" or "open3d". Empty means mock.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mock":
		return ModeMock, nil
	case "panda3d":
		return ModePanda3D, nil
	case "open3d":
		return ModeOpen3D, nil
	}
	return ModeMock, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ScreenPosition is a pixel coordinate; y grows downward.
type ScreenPosition struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ObjectDescriptor is what a backend needs to composite one placement.
type ObjectDescriptor struct {
	PlacementID    string         `json:"placement_id" yaml:"placement_id"`
	ScreenPosition ScreenPosition `json:"screen_position" yaml:"screen_position"`
	ScaleFactor    float64        `json:"scale_factor" yaml:"scale_factor"`
	Depth          float64        `json:"depth" yaml:"depth"`
	Rotation       [3]float64     `json:"rotation" yaml:"rotation,flow"`
	BoundingBox    [3]float64     `json:"bounding_box" yaml:"bounding_box,flow"`
}

// Renderer turns a composition and its projected objects into an image at outputPath.
type Renderer interface {
	Mode() Mode
	Render(ctx context.Context, c *scene.Composition, objects []ObjectDescriptor, outputPath string) error
}

// NewRenderer returns the backend for mode. Backends that are not integrated
// yet fall back to mock rendering.
func NewRenderer(mode Mode, logger *log.Logger) Renderer {
	mock := &MockRenderer{}
	switch mode {
	case ModePanda3D, ModeOpen3D:
		return &fallbackRenderer{mode: mode, next: mock, logger: logger}
	default:
		return mock
	}
}

package renderer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ivlev/storycore/internal/scene"
	"github.com/ivlev/storycore/internal/system"
)

// MockRenderer produces no pixels. It only prepares the output location so
// that callers can treat it like a real backend.
type MockRenderer struct{}

func (r *MockRenderer) Mode() Mode { return ModeMock }

func (r *MockRenderer) Render(ctx context.Context, c *scene.Composition, objects []ObjectDescriptor, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := system.EnsureDir(outputPath); err != nil {
		return fmt.Errorf("prepare output directory: %w", err)
	}
	return nil
}

// fallbackRenderer stands in for a backend whose integration does not exist yet.
type fallbackRenderer struct {
	mode   Mode
	next   Renderer
	logger *log.Logger
}

func (r *fallbackRenderer) Mode() Mode { return r.mode }

func (r *fallbackRenderer) Render(ctx context.Context, c *scene.Composition, objects []ObjectDescriptor, outputPath string) error {
	if r.logger != nil {
		r.logger.Debug("[*] backend not integrated, using mock rendering", "backend", r.mode, "composition", c.ID)
	}
	return r.next.Render(ctx, c, objects, outputPath)
}

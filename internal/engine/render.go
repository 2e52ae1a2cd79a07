package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/storycore/internal/renderer"
	"github.com/ivlev/storycore/internal/scene"
)

// RenderComposition projects every visible object and hands the result to the
// configured renderer. Failures never escape as errors or panics; they are
// reported through the result.
func (e *Engine) RenderComposition(ctx context.Context, c *scene.Composition, outputPath string) (result *renderer.CompositionResult) {
	start := time.Now()
	result = &renderer.CompositionResult{
		CompositionID: c.ID,
		Mode:          e.renderer.Mode().String(),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.ErrorMessage = fmt.Sprint(r)
			result.ObjectPositions = nil
			e.logger.Error("[!] render panicked", "composition", c.ID, "err", r)
		}
		result.ProcessingTime = time.Since(start)
	}()

	width, height := float64(c.Resolution.Width), float64(c.Resolution.Height)
	visible := c.VisibleObjects()
	objects := make([]renderer.ObjectDescriptor, 0, len(visible))
	for _, o := range visible {
		objects = append(objects, e.Describe(c, o, width, height))
	}

	if outputPath == "" {
		outputPath = e.outputPath(c)
	}

	if err := e.renderer.Render(ctx, c, objects, outputPath); err != nil {
		result.ErrorMessage = err.Error()
		e.logger.Error("[!] render failed", "composition", c.ID, "backend", e.renderer.Mode(), "err", err)
		return result
	}

	result.Success = true
	result.OutputPath = outputPath
	result.ObjectPositions = objects
	result.QualityScore = renderer.MockQualityScore
	result.RealismScore = renderer.MockRealismScore

	e.logger.Info("[>] composition rendered", "composition", c.ID, "objects", len(objects), "output", outputPath)
	return result
}

func (e *Engine) outputPath(c *scene.Composition) string {
	name := fmt.Sprintf("%s_%s.png", c.ID, e.now().Format("20060102_150405"))
	return filepath.Join(e.outputDir, name)
}

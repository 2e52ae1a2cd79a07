package engine

import (
	"github.com/ivlev/storycore/internal/scene"
	"github.com/ivlev/storycore/internal/system"
)

// ExportCompositionData writes c as JSON. Failures are logged and reported as false.
func (e *Engine) ExportCompositionData(c *scene.Composition, path string) bool {
	if err := system.EnsureDir(path); err != nil {
		e.logger.Error("[!] export failed", "composition", c.ID, "path", path, "err", err)
		return false
	}
	if err := scene.WriteFile(path, c); err != nil {
		e.logger.Error("[!] export failed", "composition", c.ID, "path", path, "err", err)
		return false
	}
	e.logger.Info("[*] composition exported", "composition", c.ID, "path", path)
	return true
}

// ImportCompositionData reads a composition from JSON. Failures are logged and reported as nil.
func (e *Engine) ImportCompositionData(path string) *scene.Composition {
	c, err := scene.ReadFile(path)
	if err != nil {
		e.logger.Error("[!] import failed", "path", path, "err", err)
		return nil
	}
	e.logger.Info("[*] composition imported", "composition", c.ID, "objects", len(c.Objects), "path", path)
	return c
}

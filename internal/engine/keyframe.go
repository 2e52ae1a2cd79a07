package engine

import (
	"sort"

	"github.com/ivlev/storycore/internal/animation"
	"github.com/ivlev/storycore/internal/renderer"
	"github.com/ivlev/storycore/internal/scene"
)

const DefaultFPS = 24

// Keyframe is the projected state of all visible objects at one video frame.
type Keyframe struct {
	FrameNumber int                         `json:"frame_number" yaml:"frame"`
	TimeSeconds float64                     `json:"time_seconds" yaml:"time"`
	Objects     []renderer.ObjectDescriptor `json:"objects" yaml:"objects"`
}

// CreateVideoKeyframe snapshots the composition at frameNumber. Objects whose
// animation name resolves in the engine's animation library are sampled at
// their animation time plus the frame time; the track replaces only the
// channels it keys and the rest of the resting transform holds. Objects
// without a resolvable track keep their resting transform. The composition
// itself is never modified.
func (e *Engine) CreateVideoKeyframe(c *scene.Composition, frameNumber, fps int) *Keyframe {
	if fps <= 0 {
		fps = DefaultFPS
	}
	kf := &Keyframe{
		FrameNumber: frameNumber,
		TimeSeconds: float64(frameNumber) / float64(fps),
	}

	width, height := float64(c.Resolution.Width), float64(c.Resolution.Height)
	visible := c.VisibleObjects()
	kf.Objects = make([]renderer.ObjectDescriptor, 0, len(visible))
	animated := false

	for _, o := range visible {
		posed := o
		rest := animation.Transform{Position: o.Position, Rotation: o.Rotation, Scale: o.Scale}
		if tr, ok := e.animations.Pose(o.AnimationName, rest, o.AnimationTime+kf.TimeSeconds); ok {
			p := *o
			p.SetPosition(tr.Position)
			p.Rotation = tr.Rotation
			p.Scale = tr.Scale
			posed = &p
			animated = true
		}
		kf.Objects = append(kf.Objects, e.Describe(c, posed, width, height))
	}

	if animated {
		sort.SliceStable(kf.Objects, func(i, j int) bool {
			return kf.Objects[i].Depth < kf.Objects[j].Depth
		})
	}
	return kf
}

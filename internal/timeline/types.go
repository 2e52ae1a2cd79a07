package timeline

import "github.com/ivlev/storycore/internal/engine"

const Version = "1.0"

// Timeline is a run of keyframes for one composition.
type Timeline struct {
	Version       string             `yaml:"version"`
	CompositionID string             `yaml:"composition_id"`
	FPS           int                `yaml:"fps"`
	Resolution    [2]int             `yaml:"resolution,flow"`
	Frames        []*engine.Keyframe `yaml:"frames"`
}

// Range selects frames Start..End inclusive.
type Range struct {
	Start int
	End   int
	FPS   int
}

func (r Range) Len() int {
	return r.End - r.Start + 1
}

// Duration is the playback length of the range in seconds.
func (t *Timeline) Duration() float64 {
	if t.FPS <= 0 || len(t.Frames) == 0 {
		return 0
	}
	return float64(len(t.Frames)) / float64(t.FPS)
}

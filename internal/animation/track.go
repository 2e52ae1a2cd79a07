package animation

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Easing selects how time is shaped between two keys.
type Easing string

const (
	EaseInOutCubic Easing = "ease-in-out"
	EaseLinear     Easing = "linear"
)

// Channel is a bit set of the transform parts a track animates.
type Channel uint8

const (
	ChannelPosition Channel = 1 << iota
	ChannelRotation
	ChannelScale

	ChannelAll = ChannelPosition | ChannelRotation | ChannelScale
)

// ParseEasing accepts "ease-in-out" and "linear". Empty means ease-in-out.
func ParseEasing(s string) (Easing, error) {
	switch Easing(s) {
	case "", EaseInOutCubic:
		return EaseInOutCubic, nil
	case EaseLinear:
		return EaseLinear, nil
	}
	return EaseInOutCubic, fmt.Errorf("unknown easing %q", s)
}

// Transform is the animated part of a placement.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3 // Euler degrees
	Scale    mgl64.Vec3
}

// TrackKey pins a transform to a time offset in seconds.
type TrackKey struct {
	Time      float64
	Transform Transform
}

// Track is a named sequence of keys ordered by time. Channels lists the parts
// of the transform the keys drive; zero means all of them.
type Track struct {
	Name     string
	Loop     bool
	Easing   Easing
	Channels Channel
	Keys     []TrackKey
}

// Animates reports whether the track drives channel ch.
func (t *Track) Animates(ch Channel) bool {
	return t.Channels == 0 || t.Channels&ch != 0
}

// Pose samples the track at tm and overlays the animated channels on base.
// Channels the track does not key keep the base values.
func (t *Track) Pose(base Transform, tm float64) Transform {
	sampled := t.Sample(tm)
	if t.Animates(ChannelPosition) {
		base.Position = sampled.Position
	}
	if t.Animates(ChannelRotation) {
		base.Rotation = sampled.Rotation
	}
	if t.Animates(ChannelScale) {
		base.Scale = sampled.Scale
	}
	return base
}

// Sort orders the keys by time.
func (t *Track) Sort() {
	sort.SliceStable(t.Keys, func(i, j int) bool {
		return t.Keys[i].Time < t.Keys[j].Time
	})
}

// Duration is the time of the last key.
func (t *Track) Duration() float64 {
	if len(t.Keys) == 0 {
		return 0
	}
	return t.Keys[len(t.Keys)-1].Time
}

// Sample returns the transform at time tm. Keys must be sorted.
// Before the first key the first transform holds; after the last key the last
// one holds, unless the track loops.
func (t *Track) Sample(tm float64) Transform {
	if len(t.Keys) == 0 {
		return Transform{Scale: mgl64.Vec3{1, 1, 1}}
	}

	first, last := t.Keys[0], t.Keys[len(t.Keys)-1]
	if t.Loop && last.Time > first.Time && tm > last.Time {
		span := last.Time - first.Time
		tm = first.Time + math.Mod(tm-first.Time, span)
	}

	if tm <= first.Time {
		return first.Transform
	}
	if tm >= last.Time {
		return last.Transform
	}

	var prev, next TrackKey
	for i := 0; i < len(t.Keys)-1; i++ {
		if tm >= t.Keys[i].Time && tm < t.Keys[i+1].Time {
			prev = t.Keys[i]
			next = t.Keys[i+1]
			break
		}
	}

	delta := next.Time - prev.Time
	if delta == 0 {
		return next.Transform
	}
	f := (tm - prev.Time) / delta
	if t.Easing != EaseLinear {
		f = easeInOutCubic(f)
	}

	return Transform{
		Position: lerpVec(prev.Transform.Position, next.Transform.Position, f),
		Rotation: lerpVec(prev.Transform.Rotation, next.Transform.Rotation, f),
		Scale:    lerpVec(prev.Transform.Scale, next.Transform.Scale, f),
	}
}

func lerpVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

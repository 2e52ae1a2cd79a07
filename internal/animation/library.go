package animation

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Library maps animation names to tracks. It is safe for concurrent use.
type Library struct {
	mu     sync.RWMutex
	tracks map[string]*Track
}

func NewLibrary() *Library {
	return &Library{tracks: make(map[string]*Track)}
}

// Register adds or replaces a track. Keys are sorted on the way in.
func (l *Library) Register(track *Track) {
	track.Sort()
	l.mu.Lock()
	l.tracks[track.Name] = track
	l.mu.Unlock()
}

func (l *Library) Lookup(name string) (*Track, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.tracks[name]
	return t, ok
}

// Sample resolves (name, time) to a transform.
func (l *Library) Sample(name string, tm float64) (Transform, bool) {
	t, ok := l.track(name)
	if !ok {
		return Transform{}, false
	}
	return t.Sample(tm), true
}

// Pose is Sample applied on top of base, replacing only the channels the track keys.
func (l *Library) Pose(name string, base Transform, tm float64) (Transform, bool) {
	t, ok := l.track(name)
	if !ok {
		return base, false
	}
	return t.Pose(base, tm), true
}

func (l *Library) track(name string) (*Track, bool) {
	if l == nil || name == "" {
		return nil, false
	}
	t, ok := l.Lookup(name)
	if !ok || len(t.Keys) == 0 {
		return nil, false
	}
	return t, true
}

func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}

type libraryFile struct {
	Version string      `yaml:"version"`
	Tracks  []trackFile `yaml:"tracks"`
}

type trackFile struct {
	Name   string    `yaml:"name"`
	Loop   bool      `yaml:"loop"`
	Easing string    `yaml:"easing"`
	Keys   []keyFile `yaml:"keys"`
}

type keyFile struct {
	Time     float64     `yaml:"time"`
	Position *[3]float64 `yaml:"position"`
	Rotation *[3]float64 `yaml:"rotation"`
	Scale    *[3]float64 `yaml:"scale"`
}

// LoadLibrary reads tracks from a YAML file. A track animates only the
// channels that appear in at least one of its keys; a key that omits a keyed
// channel uses zero for position and rotation and (1,1,1) for scale.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f libraryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse animation library %s: %w", path, err)
	}

	lib := NewLibrary()
	for _, tf := range f.Tracks {
		if tf.Name == "" {
			return nil, fmt.Errorf("animation library %s: track without name", path)
		}
		easing, err := ParseEasing(tf.Easing)
		if err != nil {
			return nil, fmt.Errorf("animation library %s: track %s: %w", path, tf.Name, err)
		}

		track := &Track{Name: tf.Name, Loop: tf.Loop, Easing: easing}
		for _, k := range tf.Keys {
			key := TrackKey{Time: k.Time, Transform: Transform{Scale: mgl64.Vec3{1, 1, 1}}}
			if k.Position != nil {
				key.Transform.Position = *k.Position
				track.Channels |= ChannelPosition
			}
			if k.Rotation != nil {
				key.Transform.Rotation = *k.Rotation
				track.Channels |= ChannelRotation
			}
			if k.Scale != nil {
				key.Transform.Scale = *k.Scale
				track.Channels |= ChannelScale
			}
			track.Keys = append(track.Keys, key)
		}
		if len(track.Keys) > 0 && track.Channels == 0 {
			return nil, fmt.Errorf("animation library %s: track %s keys no position, rotation or scale", path, tf.Name)
		}
		lib.Register(track)
	}
	return lib, nil
}

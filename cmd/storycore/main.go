package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ivlev/storycore/internal/config"
	"github.com/ivlev/storycore/internal/engine"
	"github.com/ivlev/storycore/internal/system"
	"github.com/ivlev/storycore/internal/timeline"
)

func main() {
	logger := system.Logger()

	dirs := []string{"input/compositions", "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	inputPtr := flag.String("input", "", "Composition JSON (default: newest file in input/compositions/)")
	configPtr := flag.String("config", "", "Engine config file (.yaml or .toml)")
	outputPtr := flag.String("output", "", "Render output path (generated in the output dir when empty)")
	rendererPtr := flag.String("renderer", "", "Renderer backend: mock, panda3d, open3d")
	scalePtr := flag.String("scale-model", "", "Scale model: inverse-distance, projective")
	framesPtr := flag.Int("frames", 0, "Number of keyframes to synthesize (0 disables the timeline)")
	startPtr := flag.Int("start", 0, "First frame of the timeline")
	fpsPtr := flag.Int("fps", 0, "Timeline FPS (default from config)")
	timelinePtr := flag.String("timeline", "", "Timeline YAML path (generated when empty)")
	animationsPtr := flag.String("animations", "", "Animation library YAML")
	workersPtr := flag.Int("workers", 0, "Keyframe workers (default: CPU count)")
	logLevelPtr := flag.String("log-level", "", "Log level: debug, info, warn, error")
	watchPtr := flag.Bool("watch", false, "Re-run whenever the input file changes")

	flag.Parse()

	cfg := config.Default()
	if *configPtr != "" {
		loaded, err := config.Load(*configPtr)
		if err != nil {
			logger.Fatal("[-] config error", "err", err)
		}
		cfg = loaded
	}

	if *rendererPtr != "" {
		cfg.Renderer = *rendererPtr
	}
	if *scalePtr != "" {
		cfg.ScaleModel = *scalePtr
	}
	if *fpsPtr > 0 {
		cfg.FPS = *fpsPtr
	}
	if *animationsPtr != "" {
		cfg.AnimationsPath = *animationsPtr
	}
	if *workersPtr > 0 {
		cfg.Workers = *workersPtr
	}
	if *logLevelPtr != "" {
		cfg.LogLevel = *logLevelPtr
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("[-] config error", "err", err)
	}
	if err := system.SetLogLevel(cfg.LogLevel); err != nil {
		logger.Fatal("[-] bad log level", "err", err)
	}

	inputPath := *inputPtr
	if inputPath == "" {
		latest, err := system.FindLatestComposition("input/compositions")
		if err != nil {
			logger.Fatal("[-] no composition given; put a JSON file in input/compositions/", "err", err)
		}
		inputPath = latest
		logger.Info("[*] using composition", "path", inputPath)
	}

	eng, err := engine.NewEngineFromConfig(cfg)
	if err != nil {
		logger.Fatal("[-] engine setup failed", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j := &job{
		engine:       eng,
		cfg:          cfg,
		input:        inputPath,
		output:       *outputPtr,
		timelinePath: *timelinePtr,
		frames:       *framesPtr,
		start:        *startPtr,
	}

	if err := j.run(ctx); err != nil {
		if !*watchPtr {
			logger.Fatal("[-] run failed", "err", err)
		}
		logger.Error("[!] run failed", "err", err)
	}

	if *watchPtr {
		logger.Info("[*] watching for changes", "path", inputPath)
		err := system.WatchFile(ctx, inputPath, 200*time.Millisecond, func() {
			if err := j.run(ctx); err != nil {
				logger.Error("[!] run failed", "err", err)
			}
		})
		if err != nil {
			logger.Fatal("[-] watch failed", "err", err)
		}
	}
}

type job struct {
	engine       *engine.Engine
	cfg          *config.Config
	input        string
	output       string
	timelinePath string
	frames       int
	start        int
}

func (j *job) run(ctx context.Context) error {
	logger := system.Logger()
	startTime := time.Now()

	c := j.engine.ImportCompositionData(j.input)
	if c == nil {
		return fmt.Errorf("could not load composition %s", j.input)
	}

	result := j.engine.RenderComposition(ctx, c, j.output)
	if !result.Success {
		return fmt.Errorf("render %s: %s", c.ID, result.ErrorMessage)
	}

	if j.frames > 0 {
		r := timeline.Range{Start: j.start, End: j.start + j.frames - 1, FPS: j.cfg.FPS}
		tl, err := timeline.Build(ctx, j.engine, c, r, j.cfg.Workers)
		if err != nil {
			return fmt.Errorf("build timeline: %w", err)
		}

		path := j.timelinePath
		if path == "" {
			path = timeline.GeneratePath(j.cfg.TimelineDir, c.ID)
		}
		if err := timeline.Write(tl, path); err != nil {
			return fmt.Errorf("write timeline: %w", err)
		}
		logger.Info("[>] timeline written", "frames", len(tl.Frames), "duration", fmt.Sprintf("%.2fs", tl.Duration()), "path", path)
	}

	logger.Info("[+++] done", "composition", c.ID, "mode", result.Mode, "objects", len(result.ObjectPositions),
		"output", filepath.Clean(result.OutputPath), "elapsed", time.Since(startTime).Round(time.Millisecond))
	return nil
}

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/leterax/go-skyview/internal/logger"
	"github.com/leterax/go-skyview/pkg/config"
	"github.com/leterax/go-skyview/pkg/render"
	"go.uber.org/zap"
)

func init() {
	// This is needed to ensure that OpenGL functions are called from the same thread
	runtime.LockOSThread()
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "YAML config file (empty for built-in defaults)")
	debug := flag.Bool("debug", false, "Verbose logging and an OpenGL debug context")
	windowed := flag.Bool("windowed", false, "Open a window instead of going fullscreen")
	flag.Parse()

	log, err := logger.New(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config", zap.String("path", *configPath), zap.Error(err))
	}
	if *debug {
		cfg.Window.Debug = true
	}
	if *windowed {
		cfg.Window.Fullscreen = false
	}

	log.Info("Starting viewer",
		zap.String("model", cfg.Assets.Model),
		zap.Bool("fullscreen", cfg.Window.Fullscreen),
		zap.Bool("msaa", cfg.Render.MSAA))

	// Initialize the renderer
	renderer, err := render.NewRenderer(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize renderer", zap.Error(err))
	}

	renderer.Run()
}

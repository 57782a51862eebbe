// Package main is the production entry point for the govis visualiser.
//
// govis plays an audio file and draws its spectrum as mirrored bars with a
// drifting particle field, through OpenGL when available or a raster fallback.
//
// Build:
//
//	go build -o build/govis ./cmd
//
// Run:
//
//	./build/govis [flags] [audio file]
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tejashwikalptaru/govis/internal/app"
	"github.com/tejashwikalptaru/govis/internal/domain"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (default: ~/.config/govis/config.yaml)")
	renderer := flag.String("renderer", "", "Render strategy: auto, gl, raster")
	tier := flag.String("tier", "", "Device tier: auto, desktop, mobile")
	demo := flag.Bool("demo", false, "Demo mode with synthetic audio (no audio file needed)")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(app.GetVersionInfo().FullString())
		return
	}

	config := app.DefaultConfig()
	if *configFile != "" {
		if err := config.LoadFromFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "govis: %v\n", err)
			os.Exit(2)
		}
	} else if _, err := config.TryLoadDefault(); err != nil {
		fmt.Fprintf(os.Stderr, "govis: ignoring config: %v\n", err)
	}

	// Flags override the config file
	if *renderer != "" {
		config.Renderer = *renderer
	}
	if *tier != "" {
		config.Tier = *tier
	}
	if *demo {
		config.Demo = true
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}
	if flag.NArg() > 0 {
		config.File = flag.Arg(0)
	}

	application, err := app.NewApplication(config)
	if err != nil {
		if errors.Is(err, domain.ErrNoRenderStrategy) {
			fmt.Fprintln(os.Stderr, "govis: no graphics backend could start on this machine (OpenGL 3.3 and the raster window both failed).")
		}
		fmt.Fprintf(os.Stderr, "govis: %v\n", err)
		os.Exit(1)
	}

	runErr := application.Run()
	if err := application.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "govis: shutdown error: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "govis: %v\n", runErr)
		os.Exit(1)
	}
}

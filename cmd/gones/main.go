// Package main implements the gones NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gones/internal/app"
	"gones/internal/version"
)

func main() {
	var (
		romFile     = flag.String("rom", "", "Path to NES ROM file (optional for GUI mode)")
		configFile  = flag.String("config", "", "Path to configuration file")
		debug       = flag.Bool("debug", false, "Enable debug mode")
		nogui       = flag.Bool("nogui", false, "Run without a graphics window (headless mode)")
		frames      = flag.Int("frames", 120, "Number of frames to run in headless mode")
		help        = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}
	if *showVersion {
		version.PrintBuildInfo()
		os.Exit(0)
	}

	setupGracefulShutdown()

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}

	application, err := app.NewApplicationWithMode(configPath, *nogui)
	if err != nil {
		log.Fatalf("failed to create application: %v", err)
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			log.Printf("application cleanup error: %v", err)
		}
	}()

	if *debug {
		application.GetConfig().UpdateDebug(true, true, true)
		application.ApplyDebugSettings()
	}

	if *romFile != "" {
		if err := application.LoadROM(*romFile); err != nil {
			log.Fatalf("failed to load ROM: %v", err)
		}
		if *debug {
			application.ApplyDebugSettings()
		}
	}

	if *nogui {
		if *romFile == "" {
			log.Fatal("a ROM file is required for headless mode")
		}
		runHeadlessMode(application, *frames)
		return
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application run failed: %v", err)
	}

	fmt.Printf("frames rendered: %d, uptime: %v, fps: %.1f\n",
		application.GetFrameCount(), application.GetUptime(), application.GetFPS())
}

// runHeadlessMode drives the emulator for a fixed number of frames without
// a window, useful for smoke-testing ROM loading and core timing.
func runHeadlessMode(application *app.Application, frames int) {
	bus := application.GetBus()
	if bus == nil {
		log.Fatal("bus not initialized")
	}

	for frame := 0; frame < frames; frame++ {
		startCount := bus.PPU.FrameCount()
		for bus.PPU.FrameCount() == startCount {
			bus.Step()
		}
	}

	fmt.Printf("ran %d frames (%d CPU cycles)\n", frames, bus.CycleCount())
}

func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Println("interrupt received, shutting down")
		os.Exit(0)
	}()
}

func printUsage() {
	fmt.Println("gones - Go NES Emulator")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  gones [options]                    # Start GUI mode without a ROM")
	fmt.Println("  gones -rom <file> [options]        # Start with a ROM loaded")
	fmt.Println("  gones -nogui -rom <file> [options] # Run headless for a fixed frame count")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("CONTROLS (Default):")
	fmt.Println("  Player 1:")
	fmt.Println("    Arrow Keys / WASD - D-Pad")
	fmt.Println("    J                 - A Button")
	fmt.Println("    K                 - B Button")
	fmt.Println("    Enter             - Start")
	fmt.Println("    Space             - Select")
	fmt.Println()
	fmt.Println("  Player 2 (number row):")
	fmt.Println("    1/2/3/4           - D-Pad")
	fmt.Println("    5/6               - A/B")
	fmt.Println("    7/8               - Start/Select")
	fmt.Println()
	fmt.Println("  Escape                - Quit")
	fmt.Println()
	fmt.Println("SUPPORTED FORMATS:")
	fmt.Println("  - iNES (.nes), NROM (Mapper 0) only")
}

// Package app implements the runnable NES emulator application: it wires
// the bus/cpu/ppu/apu/cartridge core to a graphics.Backend, drives the
// per-frame update/render loop, and translates backend input events into
// controller button state.
package app

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/graphics"
	"gones/internal/input"
	"gones/internal/trace"
)

// Application owns the emulator core, its graphics backend and window, and
// the mutable runtime state (pause, FPS tracking, loaded ROM) around them.
type Application struct {
	bus *bus.Bus

	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor

	config *Config

	running     bool
	paused      bool
	initialized bool
	headless    bool

	frameCount          uint64
	startTime           time.Time
	lastFPSTime         time.Time
	frameCountAtLastFPS uint64
	currentFPS          float64

	romPath   string
	cartridge *cartridge.Cartridge

	lastESCTime time.Time

	lastController1State [8]bool
	lastController2State [8]bool
}

// ApplicationError wraps an error with the component and operation that
// produced it.
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

// NewApplication creates an application with a graphics window.
func NewApplication(configPath string) (*Application, error) {
	return NewApplicationWithMode(configPath, false)
}

// NewApplicationWithMode creates an application, optionally in headless
// mode (no window, no input polling).
func NewApplicationWithMode(configPath string, headless bool) (*Application, error) {
	app := &Application{
		config:      NewConfig(),
		headless:    headless,
		startTime:   time.Now(),
		lastFPSTime: time.Now(),
	}

	if configPath != "" {
		if err := app.config.LoadFromFile(configPath); err != nil {
			log.Printf("[app] could not load config from %s, using defaults: %v", configPath, err)
		}
	}

	if err := app.initializeComponents(headless); err != nil {
		return nil, &ApplicationError{Component: "initialization", Operation: "component setup", Err: err}
	}

	return app, nil
}

func (app *Application) initializeComponents(headless bool) error {
	app.bus = bus.New()

	if err := app.initializeGraphicsBackend(headless); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %v", err)
	}

	app.initialized = true
	return nil
}

func (app *Application) initializeGraphicsBackend(headless bool) error {
	var backendType graphics.BackendType
	if headless {
		backendType = graphics.BackendHeadless
	} else {
		switch app.config.Video.Backend {
		case "ebitengine":
			backendType = graphics.BackendEbitengine
		case "headless":
			backendType = graphics.BackendHeadless
		case "terminal":
			backendType = graphics.BackendTerminal
		default:
			backendType = graphics.BackendEbitengine
		}
	}

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return fmt.Errorf("failed to create graphics backend: %v", err)
	}

	graphicsConfig := graphics.Config{
		WindowTitle:  "gones - Go NES Emulator",
		WindowWidth:  app.config.Window.Width,
		WindowHeight: app.config.Window.Height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		AspectRatio:  app.config.Video.AspectRatio,
		Headless:     headless,
		Debug:        app.config.Debug.EnableLogging,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return fmt.Errorf("failed to initialize graphics backend: %v", err)
		}
		log.Printf("[app] Ebitengine backend failed (%v), falling back to headless mode", err)
		app.graphicsBackend, err = graphics.CreateBackend(graphics.BackendHeadless)
		if err != nil {
			return fmt.Errorf("failed to create fallback headless backend: %v", err)
		}
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %v", err)
		}
	}

	if !headless && !app.graphicsBackend.IsHeadless() {
		app.window, err = app.graphicsBackend.CreateWindow(
			graphicsConfig.WindowTitle,
			graphicsConfig.WindowWidth,
			graphicsConfig.WindowHeight,
		)
		if err != nil {
			return fmt.Errorf("failed to create window: %v", err)
		}
	}

	app.videoProcessor = graphics.NewVideoProcessor(
		app.config.Video.Brightness,
		app.config.Video.Contrast,
		app.config.Video.Saturation,
	)

	return nil
}

// LoadROM parses romPath as an iNES image, installs it on the bus, and
// resets the machine so execution starts from the cartridge's reset
// vector.
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	app.cartridge = cart
	app.romPath = romPath
	app.bus.LoadCartridge(cart)

	if app.window != nil {
		app.window.SetTitle(fmt.Sprintf("gones - %s", filepath.Base(romPath)))
	}

	return nil
}

// Run starts the main application loop and blocks until the window closes
// or Stop is called.
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	app.running = true
	app.startTime = time.Now()
	app.lastFPSTime = time.Now()

	if app.config.Debug.EnableLogging {
		log.Printf("[app] starting emulator with %s backend", app.graphicsBackend.GetName())
	}

	if app.graphicsBackend.GetName() == "Ebitengine" && app.window != nil {
		if ebitengineWindow, ok := graphics.AsEbitengineWindow(app.window); ok {
			ebitengineWindow.SetEmulatorUpdateFunc(func() error {
				if err := app.processInput(); err != nil && app.config.Debug.EnableLogging {
					log.Printf("[app] input processing error: %v", err)
				}
				if err := app.updateEmulator(); err != nil {
					return err
				}
				if err := app.render(); err != nil {
					return err
				}
				app.updatePerformanceMetrics()
				if app.window.ShouldClose() {
					app.Stop()
				}
				return nil
			})
			return ebitengineWindow.Run()
		}
	}

	for app.running {
		if err := app.processInput(); err != nil && app.config.Debug.EnableLogging {
			log.Printf("[app] input processing error: %v", err)
		}
		if err := app.updateEmulator(); err != nil && app.config.Debug.EnableLogging {
			log.Printf("[app] emulator update error: %v", err)
		}
		if err := app.render(); err != nil && app.config.Debug.EnableLogging {
			log.Printf("[app] render error: %v", err)
		}
		app.updatePerformanceMetrics()

		if app.window != nil && app.window.ShouldClose() {
			app.Stop()
		}

		time.Sleep(16 * time.Millisecond) // ~60 FPS for non-Ebitengine backends
	}

	if app.config.Debug.EnableLogging {
		log.Println("[app] main loop ended")
	}
	return nil
}

// updateEmulator advances the emulator by one video frame.
func (app *Application) updateEmulator() error {
	if app.paused || app.cartridge == nil {
		return nil
	}
	return app.RunFrame()
}

// RunFrame steps the bus until the PPU completes one frame.
func (app *Application) RunFrame() error {
	frame := app.bus.PPU.FrameCount()
	for app.bus.PPU.FrameCount() == frame {
		app.bus.Step()
	}
	return nil
}

func (app *Application) processInput() error {
	if app.window == nil {
		return nil
	}

	events := app.window.PollEvents()
	if len(events) == 0 {
		return nil
	}

	controller1Buttons := app.lastController1State
	controller2Buttons := app.lastController2State
	var controller1Changed, controller2Changed bool

	for _, event := range events {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()
			return nil

		case graphics.InputEventTypeButton:
			if app.handleSpecialInput(event) {
				continue
			}
			if app.cartridge == nil {
				continue
			}
			if is2PButton(event.Button) {
				if idx := get2PButtonIndex(event.Button); idx >= 0 {
					controller2Buttons[idx] = event.Pressed
					controller2Changed = true
				}
				continue
			}
			if idx := buttonIndex(graphicsButtonToInputButton(event.Button)); idx >= 0 {
				controller1Buttons[idx] = event.Pressed
				controller1Changed = true
			}

		case graphics.InputEventTypeKey:
			app.handleKeyInput(event)
		}
	}

	if controller1Changed && app.cartridge != nil {
		app.bus.SetControllerButtons(1, controller1Buttons)
		app.lastController1State = controller1Buttons
	}
	if controller2Changed && app.cartridge != nil {
		app.bus.SetControllerButtons(2, controller2Buttons)
		app.lastController2State = controller2Buttons
	}

	return nil
}

// handleSpecialInput intercepts key presses the application itself
// consumes (quit confirmation) before they reach controller mapping.
func (app *Application) handleSpecialInput(event graphics.InputEvent) bool {
	if !event.Pressed {
		return false
	}

	if event.Type == graphics.InputEventTypeKey && event.Key == graphics.KeyEscape {
		now := time.Now()
		if !app.lastESCTime.IsZero() && now.Sub(app.lastESCTime) < 3*time.Second {
			app.Stop()
			return true
		}
		app.lastESCTime = now
		return true
	}

	if event.Type == graphics.InputEventTypeKey && event.Key != graphics.KeyEscape {
		app.lastESCTime = time.Time{}
	}

	return false
}

func (app *Application) handleKeyInput(event graphics.InputEvent) bool {
	return false
}

// buttonIndex maps a controller button to its position in the
// A,B,Select,Start,Up,Down,Left,Right array bus.SetControllerButtons
// expects. Returns -1 for an unrecognized button.
func buttonIndex(b input.Button) int {
	switch b {
	case input.ButtonA:
		return 0
	case input.ButtonB:
		return 1
	case input.ButtonSelect:
		return 2
	case input.ButtonStart:
		return 3
	case input.ButtonUp:
		return 4
	case input.ButtonDown:
		return 5
	case input.ButtonLeft:
		return 6
	case input.ButtonRight:
		return 7
	default:
		return -1
	}
}

func graphicsButtonToInputButton(gButton graphics.Button) input.Button {
	switch gButton {
	case graphics.ButtonA:
		return input.ButtonA
	case graphics.ButtonB:
		return input.ButtonB
	case graphics.ButtonSelect:
		return input.ButtonSelect
	case graphics.ButtonStart:
		return input.ButtonStart
	case graphics.ButtonUp:
		return input.ButtonUp
	case graphics.ButtonDown:
		return input.ButtonDown
	case graphics.ButtonLeft:
		return input.ButtonLeft
	case graphics.ButtonRight:
		return input.ButtonRight
	default:
		return input.ButtonA
	}
}

func is2PButton(gButton graphics.Button) bool {
	switch gButton {
	case graphics.Button2A, graphics.Button2B, graphics.Button2Select, graphics.Button2Start,
		graphics.Button2Up, graphics.Button2Down, graphics.Button2Left, graphics.Button2Right:
		return true
	default:
		return false
	}
}

func get2PButtonIndex(gButton graphics.Button) int {
	switch gButton {
	case graphics.Button2A:
		return 0
	case graphics.Button2B:
		return 1
	case graphics.Button2Select:
		return 2
	case graphics.Button2Start:
		return 3
	case graphics.Button2Up:
		return 4
	case graphics.Button2Down:
		return 5
	case graphics.Button2Left:
		return 6
	case graphics.Button2Right:
		return 7
	default:
		return -1
	}
}

// SetControllerButtons sets all eight button states for controller 1 or 2
// at once, useful for tests and headless drivers that don't go through a
// graphics.Window.
func (app *Application) SetControllerButtons(controller int, buttons [8]bool) {
	if app.bus != nil {
		app.bus.SetControllerButtons(controller, buttons)
	}
}

// GetBus returns the underlying bus for direct access.
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

func (app *Application) render() error {
	if app.window == nil {
		return nil
	}
	if app.cartridge == nil {
		return nil
	}

	frameBuffer := *app.bus.FrameBuffer()

	if app.videoProcessor != nil {
		processed := app.videoProcessor.ProcessFrame(frameBuffer[:])
		copy(frameBuffer[:], processed)
	}

	if err := app.window.RenderFrame(frameBuffer); err != nil {
		return fmt.Errorf("failed to render frame: %v", err)
	}

	app.window.SwapBuffers()
	return nil
}

// updatePerformanceMetrics tracks the frame count and the FPS measured over
// the most recent window of at least one second.
func (app *Application) updatePerformanceMetrics() {
	now := time.Now()
	app.frameCount++

	elapsed := now.Sub(app.lastFPSTime)
	if elapsed >= time.Second {
		framesInPeriod := app.frameCount - app.frameCountAtLastFPS
		app.currentFPS = float64(framesInPeriod) / elapsed.Seconds()
		app.lastFPSTime = now
		app.frameCountAtLastFPS = app.frameCount

		if app.config.Debug.EnableLogging {
			log.Printf("[fps] current=%.1f frame=%d", app.currentFPS, app.frameCount)
		}
	}
}

// Stop ends the main loop after the current iteration.
func (app *Application) Stop() {
	app.running = false
}

// Pause suspends emulator stepping; rendering and input continue.
func (app *Application) Pause() {
	app.paused = true
}

// Resume resumes emulator stepping after Pause.
func (app *Application) Resume() {
	app.paused = false
}

// TogglePause flips the paused state.
func (app *Application) TogglePause() {
	app.paused = !app.paused
}

// Reset resets the bus (and therefore the CPU, PPU and APU) to power-on
// state without unloading the cartridge.
func (app *Application) Reset() {
	if app.bus != nil {
		app.bus.Reset()
	}
}

// IsRunning reports whether the main loop is active.
func (app *Application) IsRunning() bool {
	return app.running
}

// IsPaused reports whether emulator stepping is currently suspended.
func (app *Application) IsPaused() bool {
	return app.paused
}

// GetFPS returns the most recently measured frames-per-second.
func (app *Application) GetFPS() float64 {
	return app.currentFPS
}

// GetFrameCount returns the total number of frames processed.
func (app *Application) GetFrameCount() uint64 {
	return app.frameCount
}

// GetUptime returns how long the application has been running.
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// GetROMPath returns the path of the currently loaded ROM, or "" if none.
func (app *Application) GetROMPath() string {
	return app.romPath
}

// GetConfig returns the application's configuration.
func (app *Application) GetConfig() *Config {
	return app.config
}

// ApplyDebugSettings pushes the configured debug logging flag down to the
// CPU and PPU, and attaches a trace.Logger to the CPU when CPU tracing is
// enabled.
func (app *Application) ApplyDebugSettings() {
	if app.config == nil || app.bus == nil {
		return
	}
	app.bus.CPU.EnableDebugLogging(app.config.Debug.CPUTracing)
	app.bus.PPU.EnableDebugLogging(app.config.Debug.PPUTracing)

	if app.config.Debug.CPUTracing {
		tracer := trace.NewLogger(os.Stderr, app.bus.PPU.Scanline, app.bus.PPU.Cycle)
		app.bus.CPU.SetTraceCallback(tracer.LogInstruction)
	} else {
		app.bus.CPU.SetTraceCallback(nil)
	}
}

// Cleanup releases the graphics window and backend.
func (app *Application) Cleanup() error {
	if app.config != nil && app.config.Debug.EnableLogging {
		log.Println("[app] cleaning up application resources")
	}

	var lastErr error

	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[app] window cleanup error: %v", err)
		}
	}

	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[app] graphics backend cleanup error: %v", err)
		}
	}

	app.initialized = false
	return lastErr
}

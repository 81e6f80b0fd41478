package graphics

import (
	"fmt"
	"os"
)

// HeadlessBackend implements Backend without opening any window; frames
// can optionally be dumped to disk as PPM images for offline inspection.
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow implements Window for headless operation.
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount int

	outputPath   string
	dumpInterval int // dump every Nth frame; 0 disables dumping
}

// NewHeadlessBackend creates a headless graphics backend.
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend.
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window" that discards its frames unless
// SetOutputPath/SetDumpInterval configure frame dumping.
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	return &HeadlessWindow{
		title:   title,
		width:   width,
		height:  height,
		running: true,
	}, nil
}

// Cleanup releases all headless resources.
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless always reports true for this backend.
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name.
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle records the title; there is no window chrome to update.
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns the configured dimensions.
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose reports whether Cleanup has been called.
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers is a no-op; there is nothing to present.
func (w *HeadlessWindow) SwapBuffers() {}

// PollEvents always returns no events; headless mode has no input source.
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame counts the frame and, if dumping is enabled via
// SetOutputPath/SetDumpInterval, writes every dumpInterval-th frame to disk
// as a PPM image.
func (w *HeadlessWindow) RenderFrame(frameBuffer [256 * 240]uint32) error {
	w.frameCount++

	if w.dumpInterval > 0 && w.frameCount%w.dumpInterval == 0 {
		filename := fmt.Sprintf("%s_%05d.ppm", w.outputPath, w.frameCount)
		return w.saveFrameAsPPM(frameBuffer, filename)
	}

	return nil
}

func (w *HeadlessWindow) saveFrameAsPPM(frameBuffer [256 * 240]uint32, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %v", filename, err)
	}
	defer file.Close()

	fmt.Fprintf(file, "P3\n256 240\n255\n")
	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			pixel := frameBuffer[y*256+x]
			r := (pixel >> 16) & 0xFF
			g := (pixel >> 8) & 0xFF
			b := pixel & 0xFF
			fmt.Fprintf(file, "%d %d %d ", r, g, b)
		}
		fmt.Fprintf(file, "\n")
	}

	return nil
}

// Cleanup marks the window closed.
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// SetOutputPath sets the filename prefix used when dumping frames.
func (w *HeadlessWindow) SetOutputPath(path string) {
	w.outputPath = path
}

// SetDumpInterval enables periodic PPM frame dumps every n frames. n <= 0
// disables dumping.
func (w *HeadlessWindow) SetDumpInterval(n int) {
	w.dumpInterval = n
}

// GetFrameCount returns the number of frames rendered so far.
func (w *HeadlessWindow) GetFrameCount() int {
	return w.frameCount
}

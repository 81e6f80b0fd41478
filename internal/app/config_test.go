package app

import "testing"

func TestNewConfigDefaultsPassValidation(t *testing.T) {
	c := NewConfig()
	if err := c.validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestValidateClampsOutOfRangeVideoSettings(t *testing.T) {
	c := NewConfig()
	c.Video.Brightness = 10
	c.Video.Contrast = -1
	c.Video.Saturation = 99
	c.Window.Scale = -3

	if err := c.validate(); err != nil {
		t.Fatalf("validate returned error: %v", err)
	}
	if c.Video.Brightness != 1.0 {
		t.Fatalf("Brightness = %v, want clamped to 1.0", c.Video.Brightness)
	}
	if c.Video.Contrast != 1.0 {
		t.Fatalf("Contrast = %v, want clamped to 1.0", c.Video.Contrast)
	}
	if c.Video.Saturation != 1.0 {
		t.Fatalf("Saturation = %v, want clamped to 1.0", c.Video.Saturation)
	}
	if c.Window.Scale != 1 {
		t.Fatalf("Window.Scale = %d, want clamped to 1", c.Window.Scale)
	}
}

func TestValidateRejectsZeroWindowDimensions(t *testing.T) {
	c := NewConfig()
	c.Window.Width = 0

	if err := c.validate(); err == nil {
		t.Fatal("expected error for zero window width")
	}
}

func TestCloneIsIndependentCopy(t *testing.T) {
	c := NewConfig()
	clone := c.Clone()

	clone.Window.Width = 1234
	if c.Window.Width == 1234 {
		t.Fatal("mutating clone affected original config")
	}
}

func TestGetWindowResolutionScalesNESResolution(t *testing.T) {
	c := NewConfig()
	c.Window.Scale = 3

	w, h := c.GetWindowResolution()
	if w != 256*3 || h != 240*3 {
		t.Fatalf("GetWindowResolution() = (%d,%d), want (%d,%d)", w, h, 256*3, 240*3)
	}
}

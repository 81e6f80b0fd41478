// Package input implements the NES standard controller's shift-register
// read protocol.
package input

// Button identifies one of the eight buttons on a standard NES pad.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller models one NES controller port: the strobe latch and the
// 8-bit shift register it loads from when strobe goes low.
type Controller struct {
	buttons uint8

	shiftRegister uint8
	strobe        bool
}

// New creates a Controller with no buttons held.
func New() *Controller {
	return &Controller{}
}

// SetButton sets or clears a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all eight buttons at once, in A,B,Select,Start,Up,Down,
// Left,Right order.
func (c *Controller) SetButtons(buttons [8]bool) {
	var state uint8
	order := [8]Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, pressed := range buttons {
		if pressed {
			state |= uint8(order[i])
		}
	}
	c.buttons = state
}

// IsPressed reports whether button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Write handles a write to $4016. While strobe is high the shift
// register continuously reloads from the live button state; the
// transition from high to low latches it for the read sequence that
// follows.
func (c *Controller) Write(value uint8) {
	c.strobe = value&1 != 0
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// Read pops the next bit off the shift register. While strobe is held
// high, reads keep returning button A's state without advancing.
func (c *Controller) Read() uint8 {
	if c.strobe {
		c.shiftRegister = c.buttons
		return c.shiftRegister & 1
	}
	result := c.shiftRegister & 1
	c.shiftRegister = c.shiftRegister>>1 | 0x80
	return result
}

// Reset returns the controller to its power-on state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
}

// InputState holds the two standard controller ports.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates an InputState with two fresh controllers.
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset resets both controllers.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// SetButtons1 sets all button states for controller 1.
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 sets all button states for controller 2.
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read handles reads from $4016/$4017. Controller 2's port reports open
// bus bit 6 set, matching real hardware.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write handles writes to $4016; both controller shift registers latch
// from the same strobe line.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}

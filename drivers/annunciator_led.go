package drivers

import (
	"machine"

	"github.com/kieranmoss/quadfc/core"
)

// LEDAnnunciator drives two GPIO-backed status LEDs, the red/green pair
// the arm state machine uses to show DISARMED/ARMED. Arm state is
// strictly on/off per color, so this adapter only needs pin writes, no
// flash-pattern scheduling.
type LEDAnnunciator struct {
	red, green machine.Pin
}

// NewLEDAnnunciator configures both pins as outputs.
func NewLEDAnnunciator(red, green machine.Pin) *LEDAnnunciator {
	red.Configure(machine.PinConfig{Mode: machine.PinOutput})
	green.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &LEDAnnunciator{red: red, green: green}
}

// SetLED implements core.Annunciator.
func (a *LEDAnnunciator) SetLED(color core.LEDColor, on bool) error {
	pin := a.red
	if color == core.Green {
		pin = a.green
	}
	if on {
		pin.High()
	} else {
		pin.Low()
	}
	return nil
}

package drivers

import (
	"fmt"
	"machine"

	"tinygo.org/x/drivers/servo"

	"github.com/kieranmoss/quadfc/core"
)

// minEscPulseUs/maxEscPulseUs are the standard 1000-2000us ESC pulse
// range, full negative to full positive.
const (
	minEscPulseUs = 1000
	maxEscPulseUs = 2000
)

// ServoESCs drives one tinygo.org/x/drivers/servo.Servo per rotor,
// translating core's normalized [-1, 1] pulse values into microseconds.
type ServoESCs struct {
	escs []servo.Servo
}

// NewServoESCs configures one servo channel per pin, in channel order
// (channel 1 is pins[0]).
func NewServoESCs(pwm servo.PWM, pins []machine.Pin) (*ServoESCs, error) {
	escs := make([]servo.Servo, 0, len(pins))
	for i, pin := range pins {
		s, err := servo.New(pwm, pin)
		if err != nil {
			return nil, fmt.Errorf("quadfc/drivers: configure esc channel %d: %w", i+1, err)
		}
		escs = append(escs, s)
	}
	return &ServoESCs{escs: escs}, nil
}

// SendPulseNormalized implements core.EscDriver. channel is 1-indexed.
func (e *ServoESCs) SendPulseNormalized(channel int, value float64) error {
	idx := channel - 1
	if idx < 0 || idx >= len(e.escs) {
		return fmt.Errorf("quadfc/drivers: esc channel %d out of range [1,%d]", channel, len(e.escs))
	}
	us := minEscPulseUs + (value+1)/2*(maxEscPulseUs-minEscPulseUs)
	return e.escs[idx].SetMicroseconds(int32(us))
}

var _ core.EscDriver = (*ServoESCs)(nil)

package drivers

import (
	"sync"
	"time"

	"golang.org/x/exp/constraints"

	"github.com/kieranmoss/quadfc/core"
)

// numRCChannels and the RC wire deadband/range constants follow the
// standard FlySky iBus 18-channel convention.
const (
	numRCChannels = 18

	rcMin       = 988
	rcMax       = 2012
	rcNeutral   = 1500
	deadband    = 20
	highRCValue = 1800

	ibusHeader1    = 0x20
	ibusHeader2    = 0x40
	ibusPacketSize = 2 + numRCChannels*2 + 2

	// rcFailsafeTimeout is how long a Setpoint is trusted after the last
	// valid frame before Armed reports the link as stale.
	rcFailsafeTimeout = 500 * time.Millisecond
)

// These name which iBus channel index feeds which stick/switch.
const (
	chRoll          = 0
	chPitch         = 1
	chThrottle      = 2
	chYaw           = 3
	chArm           = 4
	chAltHoldSwitch = 5
	chSixDofX       = 6
	chSixDofY       = 7
)

// IBusSetpointSource parses an iBus receiver stream on a UART into a live
// core.Setpoint. Current always returns the same pointer, which Run
// mutates in place under a mutex, so FeedbackLoop's own in-place writes to
// Yaw/Altitude on the same struct stay consistent with an RC update
// arriving mid-tick.
type IBusSetpointSource struct {
	uart rcUART

	maxRollRate, maxPitchRate, maxYawRate float64

	mu          sync.Mutex
	sp          core.Setpoint
	lastPacket  time.Time
	lastYawRate float64
	armChRaw    uint16
}

// rcUART is the minimal surface IBusSetpointSource needs from
// machine.UART, kept as an interface so tests can fake the wire.
type rcUART interface {
	ReadByte() (byte, error)
}

// NewIBusSetpointSource wires an already-configured UART. maxRollRate,
// maxPitchRate and maxYawRate bound the pilot's stick-to-rate mapping
// (radians/sec).
func NewIBusSetpointSource(uart rcUART, maxRollRate, maxPitchRate, maxYawRate float64) *IBusSetpointSource {
	s := &IBusSetpointSource{
		uart:         uart,
		maxRollRate:  maxRollRate,
		maxPitchRate: maxPitchRate,
		maxYawRate:   maxYawRate,
	}
	s.sp.EnRPYCtrl = true
	return s
}

// Run reads bytes from the UART forever, reassembling iBus frames and
// updating the live setpoint on each complete packet; the two checksum
// bytes are read but not verified. Run it in its own goroutine; it never
// returns, and a ReadByte error (tinygo's machine.UART returns one on an
// empty buffer) just moves on to the next read.
func (s *IBusSetpointSource) Run() {
	state := 0
	buf := [ibusPacketSize]byte{}
	idx := 0

	for {
		b, err := s.uart.ReadByte()
		if err != nil {
			continue
		}
		switch state {
		case 0:
			if b == ibusHeader1 {
				state = 1
			}
		case 1:
			if b == ibusHeader2 {
				idx = 0
				state = 2
			} else {
				state = 0
			}
		case 2:
			buf[idx] = b
			idx++
			if idx >= ibusPacketSize-4 {
				state = 3
			}
		case 3:
			buf[idx] = b
			idx++
			state = 4
		case 4:
			buf[idx] = b
			s.applyFrame(buf)
			state = 0
			idx = 0
		}
	}
}

func (s *IBusSetpointSource) applyFrame(frame [ibusPacketSize]byte) {
	var ch [numRCChannels]uint16
	for i := 0; i < numRCChannels; i++ {
		ch[i] = uint16(frame[2*i]) | uint16(frame[2*i+1])<<8
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastPacket = time.Now()

	roll := applyDeadband(float64(ch[chRoll]))
	pitch := applyDeadband(float64(ch[chPitch]))
	yaw := applyDeadband(float64(ch[chYaw]))

	s.sp.Roll = mapRange(clamp(roll, rcMin, rcMax), rcMin, rcMax, -s.maxRollRate, s.maxRollRate)
	s.sp.Pitch = mapRange(clamp(pitch, rcMin, rcMax), rcMin, rcMax, -s.maxPitchRate, s.maxPitchRate)
	s.lastYawRate = mapRange(clamp(yaw, rcMin, rcMax), rcMin, rcMax, -s.maxYawRate, s.maxYawRate)
	s.sp.YawRate = s.lastYawRate

	// NED convention: stick up means climb, which is negative-down thrust.
	s.sp.ZThrottle = -mapRange(clamp(float64(ch[chThrottle]), rcMin, rcMax), rcMin, rcMax, 0, 1)

	s.sp.EnAltCtrl = ch[chAltHoldSwitch] > highRCValue
	s.sp.En6Dof = false
	s.armChRaw = ch[chArm]
}

// Current implements core.SetpointSource.
func (s *IBusSetpointSource) Current() *core.Setpoint {
	return &s.sp
}

// Armed reports whether the arm switch channel is held high, and whether
// a packet has arrived recently enough to trust it.
func (s *IBusSetpointSource) Armed() (armed, signalValid bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armChRaw > highRCValue, time.Since(s.lastPacket) <= rcFailsafeTimeout
}

func applyDeadband(raw float64) float64 {
	if raw > rcNeutral-deadband && raw < rcNeutral+deadband {
		return rcNeutral
	}
	return raw
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mapRange[T constraints.Float](value, fromMin, fromMax, toMin, toMax T) T {
	if fromMax == fromMin {
		return toMin
	}
	return (value-fromMin)/(fromMax-fromMin)*(toMax-toMin) + toMin
}

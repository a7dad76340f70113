package core

import "errors"

var (
	// ErrAlreadyArmed is returned by ArmStateMachine.Arm when the
	// controller is already armed. Non-fatal; the caller should just log it.
	ErrAlreadyArmed = errors.New("quadfc/core: controller already armed")

	// ErrStrictlyProper is returned by DiscreteFilter.Prefill when the
	// compensator has no feedback memory to invert for bumpless transfer.
	ErrStrictlyProper = errors.New("quadfc/core: filter is strictly proper, cannot prefill exactly")
)

// ImuSample is one tick's worth of fused attitude plus whatever else the
// core needs from the sensing side. TaitBryanZ must be wrapped to (-pi, pi].
type ImuSample struct {
	TaitBryanX float64
	TaitBryanY float64
	TaitBryanZ float64
	VBatt      float64
}

// ImuSource is the core's sole attitude/battery input. Sample is called
// exactly once per tick, from the ISR context; implementations must not
// block.
type ImuSource interface {
	Sample() (ImuSample, error)
}

// SetpointSource exposes the live Setpoint the pilot or autonomy stack is
// writing to. Current always returns the same backing struct pointer so
// that FeedbackLoop's in-place mutations (yaw, altitude) are visible to it.
type SetpointSource interface {
	Current() *Setpoint
}

// SettingsProvider loads immutable-after-init configuration. Called once,
// by Bootstrap.
type SettingsProvider interface {
	Load() (*Settings, error)
}

// EscDriver sends a normalized throttle pulse to one rotor.
// channel is 1-indexed, value is in [-1, 1].
type EscDriver interface {
	SendPulseNormalized(channel int, value float64) error
}

// Annunciator drives the RED/GREEN status LEDs.
type Annunciator interface {
	SetLED(color LEDColor, on bool) error
}

// RunStateProvider reports the system-wide run state; owned outside the core.
type RunStateProvider interface {
	State() RunState
}

// LogSink consumes the ordered LogEntry stream for one flight. Start/Stop
// are scoped to a single arm cycle.
type LogSink interface {
	Start(sessionID string) error
	Stop() error
	Append(entry LogEntry)
}

// ArmController is the subset of ArmStateMachine that FeedbackLoop needs:
// reading the current state, and forcing a disarm from a safety gate.
type ArmController interface {
	Get() ArmState
	Disarm() error
}

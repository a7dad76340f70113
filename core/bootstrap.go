package core

import "fmt"

// Controller is the fully wired, owned controller context Bootstrap
// hands back: the feedback loop and the arm state machine that drives it.
// There are no package-level mutable globals; everything lives here.
type Controller struct {
	Loop *FeedbackLoop
	Arm  *ArmStateMachine
}

// SessionIDFunc names the session that starts a new log file each time
// the controller arms.
type SessionIDFunc func() string

// Bootstrap performs the one-shot wiring the original source's
// initialize_controller does: load settings, build the three attitude
// compensators (plus the altitude compensator, gated behind
// Settings.EnableAltitudeHold), snapshot their original gains before
// soft-start is armed, build the mixer, and make sure the controller
// starts disarmed with annunciators in a known state.
func Bootstrap(
	settingsProvider SettingsProvider,
	imu ImuSource,
	spSrc SetpointSource,
	esc EscDriver,
	annunciator Annunciator,
	logSink LogSink,
	run RunStateProvider,
	sessionID SessionIDFunc,
) (*Controller, error) {
	settings, err := settingsProvider.Load()
	if err != nil {
		return nil, fmt.Errorf("quadfc/core: bootstrap: load settings: %w", err)
	}
	if err := validateSettings(settings); err != nil {
		return nil, fmt.Errorf("quadfc/core: bootstrap: %w", err)
	}

	dt := 1.0 / settings.SampleRateHz

	dRoll := NewDiscreteFilter(settings.RollController, dt)
	dPitch := NewDiscreteFilter(settings.PitchController, dt)
	dYaw := NewDiscreteFilter(settings.YawController, dt)
	dAlt := NewDiscreteFilter(settings.AltController, dt)
	for _, f := range []*DiscreteFilter{dRoll, dPitch, dYaw, dAlt} {
		f.EnableSoftStart(settings.SoftStartSeconds)
	}

	mixer, err := NewMixer(settings.MixingMatrix, settings.NumRotors)
	if err != nil {
		return nil, fmt.Errorf("quadfc/core: bootstrap: %w", err)
	}

	loop := &FeedbackLoop{
		settings:    settings,
		dt:          dt,
		state:       &CoreState{Motors: make([]float64, settings.NumRotors)},
		sp:          spSrc.Current(),
		imu:         imu,
		esc:         esc,
		annunciator: annunciator,
		logSink:     logSink,
		run:         run,
		yaw:         &YawUnwrapper{},
		mixer:       mixer,
		dRoll:       dRoll,
		dPitch:      dPitch,
		dYaw:        dYaw,
		dAlt:        dAlt,
		lastUsrThr:  settings.MinThrustComponent,
	}

	arm := &ArmStateMachine{
		state:         Disarmed,
		loop:          loop,
		annunciator:   annunciator,
		logSink:       logSink,
		settings:      settings,
		nextSessionID: sessionID,
	}
	loop.arm = arm

	// Make sure everything is disarmed before the ISR ever fires,
	// regardless of the LEDs' unknown power-on state.
	_ = annunciator.SetLED(Red, true)
	_ = annunciator.SetLED(Green, false)

	return &Controller{Loop: loop, Arm: arm}, nil
}

func validateSettings(s *Settings) error {
	if s == nil {
		return fmt.Errorf("settings is nil")
	}
	if s.NumRotors < 1 || s.NumRotors > 8 {
		return fmt.Errorf("num_rotors %d out of range [1,8]", s.NumRotors)
	}
	if s.VNominal <= 0 {
		return fmt.Errorf("v_nominal must be positive")
	}
	if s.SampleRateHz <= 0 {
		return fmt.Errorf("sample_rate_hz must be positive")
	}
	if s.MixingMatrix == nil {
		return fmt.Errorf("mixing_matrix is required")
	}
	for name, spec := range map[string]FilterSpec{
		"roll_controller":  s.RollController,
		"pitch_controller": s.PitchController,
		"yaw_controller":   s.YawController,
	} {
		if len(spec.Num) == 0 || len(spec.Den) == 0 {
			return fmt.Errorf("%s: missing or malformed compensator spec", name)
		}
	}
	return nil
}

package core

import "fmt"

// ArmStateMachine owns the ARMED/DISARMED transition and its side
// effects: log manager start/stop and annunciator LEDs. FeedbackLoop
// never changes arm state on its own except through the Disarm method
// exposed here (as the ArmController interface), from a safety gate.
type ArmStateMachine struct {
	state       ArmState
	loop        *FeedbackLoop
	annunciator Annunciator
	logSink     LogSink
	settings    *Settings

	nextSessionID func() string
}

// Arm transitions DISARMED -> ARMED: starts the log manager (if enabled),
// zeros every compensator and the yaw estimator via FeedbackLoop.ZeroOut,
// and sets the annunciators. Arming while already armed is a no-op that
// reports ErrAlreadyArmed.
func (a *ArmStateMachine) Arm() error {
	if a.state == Armed {
		return ErrAlreadyArmed
	}
	if a.settings.EnableLogging {
		sessionID := a.sessionID()
		if err := a.logSink.Start(sessionID); err != nil {
			return fmt.Errorf("quadfc/core: arm: start log manager: %w", err)
		}
	}
	a.loop.ZeroOut()
	if err := a.annunciator.SetLED(Red, false); err != nil {
		return fmt.Errorf("quadfc/core: arm: %w", err)
	}
	if err := a.annunciator.SetLED(Green, true); err != nil {
		return fmt.Errorf("quadfc/core: arm: %w", err)
	}
	a.state = Armed
	return nil
}

// Disarm transitions to DISARMED: stops the log manager and sets the
// annunciators. It never commands motors directly -- the next tick's
// safety gate does that, avoiding a race with the ISR.
func (a *ArmStateMachine) Disarm() error {
	if a.state == Disarmed {
		return nil
	}
	if err := a.logSink.Stop(); err != nil {
		return fmt.Errorf("quadfc/core: disarm: stop log manager: %w", err)
	}
	if err := a.annunciator.SetLED(Red, true); err != nil {
		return fmt.Errorf("quadfc/core: disarm: %w", err)
	}
	if err := a.annunciator.SetLED(Green, false); err != nil {
		return fmt.Errorf("quadfc/core: disarm: %w", err)
	}
	a.state = Disarmed
	return nil
}

// Get returns the current arm state.
func (a *ArmStateMachine) Get() ArmState {
	return a.state
}

func (a *ArmStateMachine) sessionID() string {
	if a.nextSessionID != nil {
		return a.nextSessionID()
	}
	return "flight"
}

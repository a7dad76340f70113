package core

import (
	"errors"
	"testing"
)

type fixedSettingsProvider struct {
	settings *Settings
	err      error
}

func (p fixedSettingsProvider) Load() (*Settings, error) {
	return p.settings, p.err
}

func TestValidateSettingsRejectsBadNumRotors(t *testing.T) {
	s := testSettings()
	s.NumRotors = 0
	if err := validateSettings(s); err == nil {
		t.Fatal("validateSettings with NumRotors=0: want error, got nil")
	}
}

func TestValidateSettingsRejectsMissingMixingMatrix(t *testing.T) {
	s := testSettings()
	s.MixingMatrix = nil
	if err := validateSettings(s); err == nil {
		t.Fatal("validateSettings with nil MixingMatrix: want error, got nil")
	}
}

func TestValidateSettingsAcceptsWellFormedSettings(t *testing.T) {
	if err := validateSettings(testSettings()); err != nil {
		t.Fatalf("validateSettings(testSettings()): %v", err)
	}
}

func TestBootstrapWiresControllerStartingDisarmedWithRedLED(t *testing.T) {
	ann := &fakeAnnunciator{}
	logSink := &fakeLogSink{}
	esc := newFakeEsc()
	imu := &fakeImu{sample: ImuSample{VBatt: 12}}
	sp := &Setpoint{EnRPYCtrl: true}

	ctrl, err := Bootstrap(
		fixedSettingsProvider{settings: testSettings()},
		imu,
		fakeSetpointSource{sp: sp},
		esc,
		ann,
		logSink,
		fakeRunState{state: Running},
		func() string { return "session-1" },
	)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if ctrl.Arm.Get() != Disarmed {
		t.Fatalf("Arm.Get() after Bootstrap = %v, want Disarmed", ctrl.Arm.Get())
	}
	if !ann.red || ann.green {
		t.Fatalf("LEDs after Bootstrap = red=%v green=%v, want red=true green=false", ann.red, ann.green)
	}
}

func TestBootstrapPropagatesSettingsLoadError(t *testing.T) {
	_, err := Bootstrap(
		fixedSettingsProvider{err: errBoom},
		&fakeImu{},
		fakeSetpointSource{sp: &Setpoint{}},
		newFakeEsc(),
		&fakeAnnunciator{},
		&fakeLogSink{},
		fakeRunState{state: Running},
		nil,
	)
	if err == nil {
		t.Fatal("Bootstrap with failing SettingsProvider: want error, got nil")
	}
}

type fakeSetpointSource struct {
	sp *Setpoint
}

func (f fakeSetpointSource) Current() *Setpoint { return f.sp }

var errBoom = errors.New("boom")

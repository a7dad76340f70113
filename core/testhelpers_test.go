package core

import "gonum.org/v1/gonum/mat"

// fakeImu returns the same fixed sample (and error) on every call to
// FeedbackLoop.Tick, the way a bench test stands in for real hardware.
type fakeImu struct {
	sample ImuSample
	err    error
}

func (f *fakeImu) Sample() (ImuSample, error) {
	return f.sample, f.err
}

// fakeEsc records every normalized pulse sent, per channel.
type fakeEsc struct {
	pulses map[int]float64
}

func newFakeEsc() *fakeEsc {
	return &fakeEsc{pulses: make(map[int]float64)}
}

func (f *fakeEsc) SendPulseNormalized(channel int, value float64) error {
	f.pulses[channel] = value
	return nil
}

// fakeRunState reports a fixed RunState.
type fakeRunState struct {
	state RunState
}

func (f fakeRunState) State() RunState { return f.state }

// fakeArmController stands in for ArmStateMachine in FeedbackLoop tests
// that only care about the safety-gate side of arming, not the LED/log
// side effects ArmStateMachine itself owns.
type fakeArmController struct {
	state        ArmState
	disarmCalled int
}

func (f *fakeArmController) Get() ArmState { return f.state }

func (f *fakeArmController) Disarm() error {
	f.disarmCalled++
	f.state = Disarmed
	return nil
}

// testMixingMatrix is a standard quad-X layout: 4 rotors, 6 axis columns.
// The throttle column is -1, not +1: climb is negative-down in NED, so
// flipping the sign here is what turns "more climb" into "more rotor
// effort" once mixed.
func testMixingMatrix() *mat.Dense {
	return mat.NewDense(4, int(numAxes), []float64{
		-1, -1, 1, 1, 0, 0,
		-1, 1, 1, -1, 0, 0,
		-1, 1, -1, 1, 0, 0,
		-1, -1, -1, -1, 0, 0,
	})
}

func testSettings() *Settings {
	return &Settings{
		NumRotors:          4,
		VNominal:           12.0,
		SampleRateHz:       100,
		TipAngle:           1.0, // ~57 degrees
		MinThrustComponent: 0.1,
		MaxThrustComponent: 0.9,
		MaxRollComponent:   1,
		MaxPitchComponent:  1,
		MaxYawComponent:    1,
		MaxXComponent:      1,
		MaxYComponent:      1,
		AltBoundU:          1,
		AltBoundD:          1,
		RollController:     FilterSpec{Num: []float64{1}, Den: []float64{1}, Gain: 1},
		PitchController:    FilterSpec{Num: []float64{1}, Den: []float64{1}, Gain: 1},
		YawController:      FilterSpec{Num: []float64{1}, Den: []float64{1}, Gain: 1},
		AltController:      FilterSpec{Num: []float64{1}, Den: []float64{1}, Gain: 1},
		MixingMatrix:       testMixingMatrix(),
	}
}

// newTestFeedbackLoop builds a fully wired FeedbackLoop over fakes, with
// a neutral IMU sample and an always-Running RunStateProvider. Override
// loop.imu/loop.arm/etc. in individual tests as needed.
func newTestFeedbackLoop(settings *Settings) *FeedbackLoop {
	if settings == nil {
		settings = testSettings()
	}
	dt := 1.0 / settings.SampleRateHz
	mixer, err := NewMixer(settings.MixingMatrix, settings.NumRotors)
	if err != nil {
		panic(err)
	}
	return &FeedbackLoop{
		settings: settings,
		dt:       dt,
		state:    &CoreState{Motors: make([]float64, settings.NumRotors)},
		sp:       &Setpoint{EnRPYCtrl: true},
		imu:         &fakeImu{sample: ImuSample{VBatt: settings.VNominal}},
		esc:         newFakeEsc(),
		annunciator: &fakeAnnunciator{},
		logSink:     &fakeLogSink{},
		run:         fakeRunState{state: Running},
		arm:         &fakeArmController{state: Armed},
		yaw:      &YawUnwrapper{},
		mixer:    mixer,
		dRoll:    NewDiscreteFilter(settings.RollController, dt),
		dPitch:   NewDiscreteFilter(settings.PitchController, dt),
		dYaw:     NewDiscreteFilter(settings.YawController, dt),
		dAlt:     NewDiscreteFilter(settings.AltController, dt),
	}
}

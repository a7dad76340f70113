package core

import "math"

// FeedbackLoop is the ISR-invoked tick: state estimation, safety gates,
// controller march, ESC output, and log append, run in that order every
// sample period. It exclusively owns the three attitude compensators,
// the altitude compensator, and the yaw unwrapper.
type FeedbackLoop struct {
	settings *Settings
	dt       float64

	state *CoreState
	sp    *Setpoint

	imu         ImuSource
	esc         EscDriver
	annunciator Annunciator
	logSink     LogSink
	run         RunStateProvider
	arm         ArmController

	yaw   *YawUnwrapper
	mixer *Mixer

	dRoll, dPitch, dYaw, dAlt *DiscreteFilter

	lastAltCtrlEn bool
	lastUsrThr    float64
	lastImuYawRaw float64
	loopIndex     uint64
}

// State returns the live CoreState. Callers must treat it read-only;
// FeedbackLoop is its sole writer.
func (fl *FeedbackLoop) State() *CoreState {
	return fl.state
}

// LoopIndex returns the number of ticks completed so far.
func (fl *FeedbackLoop) LoopIndex() uint64 {
	return fl.loopIndex
}

// Tick runs one full pass of the feedback loop. It is meant to be called
// from the IMU interrupt context, once per sample.
func (fl *FeedbackLoop) Tick() error {
	sample, err := fl.imu.Sample()
	if err != nil {
		fl.idleMotors()
		return err
	}

	// Phase 1: state estimation, regardless of arm state.
	fl.state.Roll = sample.TaitBryanY
	fl.state.Pitch = sample.TaitBryanX
	fl.lastImuYawRaw = sample.TaitBryanZ
	fl.state.Yaw = fl.yaw.Update(sample.TaitBryanZ)
	fl.state.VBatt = sample.VBatt
	// Altitude estimate: TODO, treated as pass-through in this core.

	// Phase 2: safety gates.
	if fl.run.State() != Running && fl.arm.Get() == Armed {
		_ = fl.arm.Disarm()
	}
	if math.Abs(fl.state.Roll) > fl.settings.TipAngle || math.Abs(fl.state.Pitch) > fl.settings.TipAngle {
		_ = fl.arm.Disarm()
		fl.idleMotors()
		return nil
	}
	if fl.run.State() != Running || fl.arm.Get() == Disarmed {
		fl.idleMotors()
		return nil
	}

	// Phase 3: control march.
	mot := make([]float64, fl.settings.NumRotors)
	u := make([]float64, numAxes)

	fl.marchThrottle(u, mot)

	if fl.sp.EnRPYCtrl {
		fl.marchRoll(u, mot)
		fl.marchPitch(u, mot)
		fl.marchYaw(u, mot)
	}

	if fl.sp.En6Dof {
		fl.marchLateral(u, mot)
	}

	// Phase 4: output.
	for i := 0; i < fl.settings.NumRotors; i++ {
		fl.state.Motors[i] = mot[i]
		fl.esc.SendPulseNormalized(i+1, clampOrdered(mot[i], 0, 1))
	}

	// Phase 5: log.
	if fl.settings.EnableLogging {
		fl.logSink.Append(LogEntry{
			LoopIndex: fl.loopIndex,
			Alt:       fl.state.Alt,
			Roll:      fl.state.Roll,
			Pitch:     fl.state.Pitch,
			Yaw:       fl.state.Yaw,
			VBatt:     fl.state.VBatt,
			UThr:      u[AxisThr],
			URoll:     u[AxisRoll],
			UPitch:    u[AxisPitch],
			UYaw:      u[AxisYaw],
			UX:        u[AxisX],
			UY:        u[AxisY],
			Mot:       append([]float64(nil), fl.state.Motors...),
		})
	}
	fl.loopIndex++
	return nil
}

func (fl *FeedbackLoop) idleMotors() {
	for i := 0; i < fl.settings.NumRotors; i++ {
		fl.state.Motors[i] = -0.1
		fl.esc.SendPulseNormalized(i+1, -0.1)
	}
}

func (fl *FeedbackLoop) tiltFactor() float64 {
	return math.Cos(fl.state.Roll) * math.Cos(fl.state.Pitch)
}

func (fl *FeedbackLoop) marchThrottle(u, mot []float64) {
	if fl.settings.EnableAltitudeHold && fl.sp.EnAltCtrl {
		if !fl.lastAltCtrlEn {
			fl.sp.Altitude = fl.state.Alt
			if err := fl.dAlt.Prefill(fl.lastUsrThr); err != nil {
				println("altitude compensator prefill degraded:", err.Error())
			}
			fl.lastAltCtrlEn = true
		}
		fl.sp.Altitude += fl.sp.AltitudeRate * fl.dt
		fl.sp.Altitude = clampOrdered(fl.sp.Altitude, fl.state.Alt-fl.settings.AltBoundD, fl.state.Alt+fl.settings.AltBoundU)
		fl.dAlt.SetGain(fl.dAlt.GainOrig() * fl.settings.VNominal / fl.state.VBatt)
		tmp := fl.dAlt.March(fl.sp.Altitude - fl.state.Alt)
		uThr := clampOrdered(tmp/fl.tiltFactor(), fl.settings.MinThrustComponent, fl.settings.MaxThrustComponent)
		u[AxisThr] = uThr
		fl.mixer.AddMixedInput(uThr, AxisThr, mot)
		return
	}

	tmp := clampOrdered(fl.sp.ZThrottle/fl.tiltFactor(), -fl.settings.MinThrustComponent, -fl.settings.MaxThrustComponent)
	u[AxisThr] = tmp
	fl.mixer.AddMixedInput(tmp, AxisThr, mot)
	fl.lastUsrThr = fl.sp.ZThrottle
	fl.lastAltCtrlEn = false
}

func (fl *FeedbackLoop) marchRoll(u, mot []float64) {
	min, max := fl.mixer.CheckChannelSaturation(AxisRoll, mot)
	min, max = clampInterval(min, max, -fl.settings.MaxRollComponent, fl.settings.MaxRollComponent)
	fl.dRoll.EnableSaturation(min, max)
	fl.dRoll.SetGain(fl.dRoll.GainOrig() * fl.settings.VNominal / fl.state.VBatt)
	u[AxisRoll] = fl.dRoll.March(fl.sp.Roll - fl.state.Roll)
	fl.mixer.AddMixedInput(u[AxisRoll], AxisRoll, mot)
}

func (fl *FeedbackLoop) marchPitch(u, mot []float64) {
	min, max := fl.mixer.CheckChannelSaturation(AxisPitch, mot)
	min, max = clampInterval(min, max, -fl.settings.MaxPitchComponent, fl.settings.MaxPitchComponent)
	fl.dPitch.EnableSaturation(min, max)
	fl.dPitch.SetGain(fl.dPitch.GainOrig() * fl.settings.VNominal / fl.state.VBatt)
	u[AxisPitch] = fl.dPitch.March(fl.sp.Pitch - fl.state.Pitch)
	fl.mixer.AddMixedInput(u[AxisPitch], AxisPitch, mot)
}

func (fl *FeedbackLoop) marchYaw(u, mot []float64) {
	fl.sp.Yaw += fl.dt * fl.sp.YawRate
	min, max := fl.mixer.CheckChannelSaturation(AxisYaw, mot)
	min, max = clampInterval(min, max, -fl.settings.MaxYawComponent, fl.settings.MaxYawComponent)
	fl.dYaw.EnableSaturation(min, max)
	fl.dYaw.SetGain(fl.dYaw.GainOrig() * fl.settings.VNominal / fl.state.VBatt)
	u[AxisYaw] = fl.dYaw.March(fl.sp.Yaw - fl.state.Yaw)
	fl.mixer.AddMixedInput(u[AxisYaw], AxisYaw, mot)
}

// marchLateral handles the optional X/Y (6dof) inputs. The original
// source assigns u[VEC_Y] from sp->X_throttle and u[VEC_X] from
// sp->Y_throttle (kept here, not flagged as a bug) but mixes u[VEC_X]
// into the VEC_Y slot (flagged as a bug in the design notes); this
// implementation mixes each u into its own matching axis slot.
func (fl *FeedbackLoop) marchLateral(u, mot []float64) {
	u[AxisY] = fl.sp.XThrottle
	minY, maxY := fl.mixer.CheckChannelSaturation(AxisY, mot)
	minY, maxY = clampInterval(minY, maxY, -fl.settings.MaxXComponent, fl.settings.MaxXComponent)
	u[AxisY] = clampOrdered(u[AxisY], minY, maxY)
	fl.mixer.AddMixedInput(u[AxisY], AxisY, mot)

	u[AxisX] = fl.sp.YThrottle
	minX, maxX := fl.mixer.CheckChannelSaturation(AxisX, mot)
	minX, maxX = clampInterval(minX, maxX, -fl.settings.MaxYComponent, fl.settings.MaxYComponent)
	u[AxisX] = clampOrdered(u[AxisX], minX, maxX)
	fl.mixer.AddMixedInput(u[AxisX], AxisX, mot)
}

// ZeroOut clears all compensator memory and the yaw estimator. Called by
// ArmStateMachine.Arm so every flight starts from a clean filter state.
func (fl *FeedbackLoop) ZeroOut() {
	fl.dRoll.Reset()
	fl.dPitch.Reset()
	fl.dYaw.Reset()
	fl.dAlt.Reset()
	fl.lastAltCtrlEn = false
	fl.lastUsrThr = fl.settings.MinThrustComponent
	fl.yaw.Reset(fl.lastImuYawRaw)
}

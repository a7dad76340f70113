package core

import "gonum.org/v1/gonum/mat"

// Axis identifies one of the six mixer input channels.
type Axis int

const (
	AxisThr Axis = iota
	AxisRoll
	AxisPitch
	AxisYaw
	AxisX
	AxisY
	numAxes
)

func (a Axis) String() string {
	switch a {
	case AxisThr:
		return "THR"
	case AxisRoll:
		return "ROLL"
	case AxisPitch:
		return "PITCH"
	case AxisYaw:
		return "YAW"
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	default:
		return "UNKNOWN"
	}
}

// ArmState is the two-state arming state of the controller.
type ArmState int

const (
	Disarmed ArmState = iota
	Armed
)

func (s ArmState) String() string {
	if s == Armed {
		return "ARMED"
	}
	return "DISARMED"
}

// RunState reflects the system-wide run state the core must respect;
// it is supplied by whatever owns the process lifecycle, not by the core.
type RunState int

const (
	Paused RunState = iota
	Running
)

// CoreState is the continuously updated vehicle estimate. FeedbackLoop is
// its sole writer; everything else only reads it.
type CoreState struct {
	Roll, Pitch, Yaw float64 // radians; yaw is continuous, not wrapped
	Alt              float64 // meters; not estimated by this core, nothing here writes it
	VBatt            float64 // volts
	Motors           []float64
}

// Setpoint holds the targets produced by a SetpointSource. The feedback
// loop mutates Yaw and Altitude in place as part of the bumpless-transfer
// path documented on FeedbackLoop; every other field is read-only to it.
type Setpoint struct {
	Roll, Pitch, Yaw, YawRate float64
	ZThrottle                 float64 // NED, negative-down, range [-1, 0]
	XThrottle, YThrottle      float64
	Altitude, AltitudeRate    float64

	EnRPYCtrl bool
	EnAltCtrl bool
	En6Dof    bool
}

// FilterSpec is the coefficient shape loaded from settings for one
// DiscreteFilter instance: a discrete transfer function b(z)/a(z) with
// a[0] == 1, plus the initial scalar gain applied on top of it.
type FilterSpec struct {
	Num  []float64
	Den  []float64
	Gain float64
}

// Settings is the immutable-after-init configuration for one flight.
type Settings struct {
	NumRotors           int
	VNominal            float64
	EnableLogging       bool
	EnableAltitudeHold  bool
	SampleRateHz        float64
	SoftStartSeconds    float64
	TipAngle            float64
	MinThrustComponent  float64
	MaxThrustComponent  float64
	MaxRollComponent    float64
	MaxPitchComponent   float64
	MaxYawComponent     float64
	MaxXComponent       float64
	MaxYComponent       float64
	AltBoundU           float64
	AltBoundD           float64

	RollController  FilterSpec
	PitchController FilterSpec
	YawController   FilterSpec
	AltController   FilterSpec

	// MixingMatrix is NumRotors x 6 (one column per Axis).
	MixingMatrix *mat.Dense
}

// LogEntry is one snapshot pushed to the LogSink per tick while logging
// is enabled.
type LogEntry struct {
	LoopIndex uint64
	Alt       float64
	Roll      float64
	Pitch     float64
	Yaw       float64
	VBatt     float64
	UThr      float64
	URoll     float64
	UPitch    float64
	UYaw      float64
	UX        float64
	UY        float64
	Mot       []float64
}

// LEDColor names an annunciator channel.
type LEDColor int

const (
	Red LEDColor = iota
	Green
)

func (c LEDColor) String() string {
	if c == Green {
		return "GREEN"
	}
	return "RED"
}

//go:build bno08x

package drivers

import (
	"machine"
	"math"

	"tinygo.org/x/drivers/bno08x"

	"github.com/kieranmoss/quadfc/core"
)

// BNO08xImu is an alternate core.ImuSource for boards carrying a BNO08x,
// which fuses its own attitude onboard (game rotation vector) instead of
// leaning on this package's Kalman filter the way LSM6DS3TRImu does. This
// file is compiled only with -tags bno08x; cmd/quadfc wires the LSM6DS3TR
// adapter either way.
type BNO08xImu struct {
	sensor   *bno08x.Device
	vbattPin machine.ADC
	lastYaw  float64
}

// NewBNO08xImu wraps an already-configured sensor with game rotation
// vector reports enabled.
func NewBNO08xImu(sensor *bno08x.Device, vbattPin machine.ADC) *BNO08xImu {
	return &BNO08xImu{sensor: sensor, vbattPin: vbattPin}
}

// Sample implements core.ImuSource.
func (b *BNO08xImu) Sample() (core.ImuSample, error) {
	event, ok := b.sensor.GetSensorEvent()
	if !ok || event.ID() != bno08x.SensorGameRotationVector {
		return core.ImuSample{
			TaitBryanZ: b.lastYaw,
			VBatt:      b.readVBatt(),
		}, nil
	}
	roll, pitch, yaw := quaternionToEuler(event.Quaternion())
	b.lastYaw = float64(yaw)
	return core.ImuSample{
		TaitBryanX: float64(pitch),
		TaitBryanY: float64(roll),
		TaitBryanZ: float64(yaw),
		VBatt:      b.readVBatt(),
	}, nil
}

func (b *BNO08xImu) readVBatt() float64 {
	if b.vbattPin == (machine.ADC{}) {
		return 0
	}
	raw := b.vbattPin.Get()
	return float64(raw) / 65535 * 3.3 * vbattDividerRatio
}

// quaternionToEuler converts a unit quaternion to Tait-Bryan angles
// (roll about X, pitch about Y, yaw about Z), in radians.
func quaternionToEuler(q bno08x.Quaternion) (roll, pitch, yaw float32) {
	sinrCosp := 2.0 * (q.Real*q.I + q.J*q.K)
	cosrCosp := 1.0 - 2.0*(q.I*q.I+q.J*q.J)
	roll = float32(math.Atan2(float64(sinrCosp), float64(cosrCosp)))

	sinp := 2.0 * (q.Real*q.J - q.K*q.I)
	if math.Abs(float64(sinp)) >= 1 {
		pitch = float32(math.Copysign(math.Pi/2, float64(sinp)))
	} else {
		pitch = float32(math.Asin(float64(sinp)))
	}

	sinyCosp := 2.0 * (q.Real*q.K + q.I*q.J)
	cosyCosp := 1.0 - 2.0*(q.J*q.J+q.K*q.K)
	yaw = float32(math.Atan2(float64(sinyCosp), float64(cosyCosp)))

	return roll, pitch, yaw
}

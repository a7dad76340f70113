// Package drivers adapts concrete sensors, actuators, and annunciators to
// the interfaces core declares. Each file here targets one piece of
// hardware so a board swap touches one file, not core.
package drivers

import (
	"machine"
	"math"

	"tinygo.org/x/drivers/lsm6ds3tr"

	"github.com/kieranmoss/quadfc/core"
)

const (
	microGToMS2    = 9.80665 / 1e6
	microDPSToRadS = math.Pi / (180 * 1e6)
)

// LSM6DS3TRImu fuses the LSM6DS3TR's accelerometer and gyro into a
// Tait-Bryan attitude estimate with a two-state (pitch, roll) Kalman
// filter, and reports battery voltage from an ADC pin. Yaw is not
// observable from this sensor alone, so TaitBryanZ is held at the
// gyro-integrated heading with no accelerometer correction.
type LSM6DS3TRImu struct {
	dev      *lsm6ds3tr.Device
	vbattPin machine.ADC

	kf *kalmanFilter

	gyroBiasX, gyroBiasY float64
	yawEstimate          float64

	dt float64
}

// NewLSM6DS3TRImu wraps an already-configured device. Calibrate should be
// called once, with the vehicle stationary, before the first Sample.
func NewLSM6DS3TRImu(dev *lsm6ds3tr.Device, vbattPin machine.ADC, dt float64) *LSM6DS3TRImu {
	return &LSM6DS3TRImu{
		dev:      dev,
		vbattPin: vbattPin,
		kf:       newKalmanFilter(dt),
		dt:       dt,
	}
}

// Calibrate samples the gyro n times with the vehicle held still and
// stores the mean as the zero-rate bias removed from every later reading.
func (m *LSM6DS3TRImu) Calibrate(samples int) error {
	var sumX, sumY float64
	for i := 0; i < samples; i++ {
		xG, yG, _, err := m.dev.ReadRotation()
		if err != nil {
			return err
		}
		sumX += float64(xG) * microDPSToRadS
		sumY += float64(yG) * microDPSToRadS
	}
	m.gyroBiasX = sumX / float64(samples)
	m.gyroBiasY = sumY / float64(samples)
	return nil
}

// Sample implements core.ImuSource.
func (m *LSM6DS3TRImu) Sample() (core.ImuSample, error) {
	ax, ay, az, err := m.dev.ReadAcceleration()
	if err != nil {
		return core.ImuSample{}, err
	}
	gx, gy, gz, err := m.dev.ReadRotation()
	if err != nil {
		return core.ImuSample{}, err
	}

	accelX := float64(ax) * microGToMS2
	accelY := float64(ay) * microGToMS2
	accelZ := float64(az) * microGToMS2
	gyroX := float64(gx)*microDPSToRadS - m.gyroBiasX
	gyroY := float64(gy)*microDPSToRadS - m.gyroBiasY
	gyroZ := float64(gz) * microDPSToRadS

	pitchAccel := math.Atan2(-accelX, math.Sqrt(accelY*accelY+accelZ*accelZ))
	rollAccel := math.Atan2(accelY, accelZ)

	m.kf.Predict(gyroX, gyroY)
	m.kf.Update(pitchAccel, rollAccel)
	pitch, roll := m.kf.Estimate()

	m.yawEstimate += gyroZ * m.dt
	for m.yawEstimate > math.Pi {
		m.yawEstimate -= 2 * math.Pi
	}
	for m.yawEstimate < -math.Pi {
		m.yawEstimate += 2 * math.Pi
	}

	return core.ImuSample{
		TaitBryanX: pitch,
		TaitBryanY: roll,
		TaitBryanZ: m.yawEstimate,
		VBatt:      m.readVBatt(),
	}, nil
}

func (m *LSM6DS3TRImu) readVBatt() float64 {
	if m.vbattPin == (machine.ADC{}) {
		return 0
	}
	raw := m.vbattPin.Get()
	return float64(raw) / 65535 * 3.3 * vbattDividerRatio
}

// vbattDividerRatio scales the ADC's 0-3.3V range up to the pack voltage
// through the board's resistor divider; tuned per airframe.
const vbattDividerRatio = 4.0

// Command quadfc is the vehicle-side entry point: it wires concrete
// hardware into the core feedback loop and drives it from a fixed-rate
// ticker.
package main

import (
	"machine"
	"time"

	"github.com/google/uuid"
	"tinygo.org/x/drivers/lsm6ds3tr"
	"tinygo.org/x/drivers/servo"

	"github.com/kieranmoss/quadfc/core"
	"github.com/kieranmoss/quadfc/drivers"
)

const version = "0.1.0"

// escPins names the four ESC channels in rotor order, matching whatever
// SettingsProvider's mixing_matrix rows assume.
var escPins = []machine.Pin{machine.D2, machine.D3, machine.D4, machine.D5}

// ledPins are the RED/GREEN arm-state annunciators.
const (
	ledRedPin   = machine.D8
	ledGreenPin = machine.D9
)

type stationaryRunState struct{}

func (stationaryRunState) State() core.RunState { return core.Running }

func main() {
	time.Sleep(2 * time.Second)
	println("quadfc -", version)
	println("A TinyGo flight-feedback controller core")

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz}); err != nil {
		fatal("could not configure I2C", err)
	}

	lsm := lsm6ds3tr.New(i2c)
	if err := lsm.Configure(lsm6ds3tr.Configuration{
		AccelRange:      lsm6ds3tr.ACCEL_8G,
		AccelSampleRate: lsm6ds3tr.ACCEL_SR_104,
		GyroRange:       lsm6ds3tr.GYRO_1000DPS,
		GyroSampleRate:  lsm6ds3tr.GYRO_SR_104,
	}); err != nil {
		fatal("could not configure LSM6DS3TR", err)
	}
	if !lsm.Connected() {
		fatal("LSM6DS3TR not connected", nil)
	}

	const sampleRateHz = 100.0
	dt := 1.0 / sampleRateHz

	vbattADC := machine.ADC{Pin: machine.A0}
	vbattADC.Configure(machine.ADCConfig{})
	imu := drivers.NewLSM6DS3TRImu(lsm, vbattADC, dt)
	println("Calibrating gyro, keep the vehicle still...")
	if err := imu.Calibrate(1000); err != nil {
		println("gyro calibration error:", err.Error())
	}
	println("Calibration complete.")

	pwm := machine.PWM1
	if err := pwm.Configure(machine.PWMConfig{Period: uint64(1e9 / 490)}); err != nil {
		fatal("could not configure ESC PWM", err)
	}
	esc, err := drivers.NewServoESCs(escPwm{pwm}, escPins)
	if err != nil {
		fatal("could not configure ESCs", err)
	}

	annunciator := drivers.NewLEDAnnunciator(ledRedPin, ledGreenPin)

	logSink := &core.CSVLogSink{Dir: "/flights"}

	uart := machine.DefaultUART
	uart.Configure(machine.UARTConfig{BaudRate: 115200, TX: machine.NoPin, RX: machine.UART_RX_PIN})
	setpointSource := drivers.NewIBusSetpointSource(uart, maxRollRateRad(), maxPitchRateRad(), maxYawRateRad())
	go setpointSource.Run()

	settings := core.YAMLSettings{Path: "/quadfc.yaml"}

	ctrl, err := core.Bootstrap(settings, imu, setpointSource, esc, annunciator, logSink, stationaryRunState{}, func() string {
		return uuid.NewString()
	})
	if err != nil {
		fatal("bootstrap failed", err)
	}

	watchdog := machine.Watchdog
	watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 500})
	watchdog.Start()

	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()

	wasArmed := false
	for {
		<-ticker.C

		armSwitch, signalValid := setpointSource.Armed()
		switch {
		case !signalValid && wasArmed:
			_ = ctrl.Arm.Disarm()
		case armSwitch && ctrl.Arm.Get() == core.Disarmed:
			if err := ctrl.Arm.Arm(); err != nil {
				println("arm failed:", err.Error())
			}
		case !armSwitch && ctrl.Arm.Get() == core.Armed:
			_ = ctrl.Arm.Disarm()
		}
		wasArmed = ctrl.Arm.Get() == core.Armed

		if err := ctrl.Loop.Tick(); err != nil {
			println("tick error:", err.Error())
		}

		watchdog.Update()
	}
}

func fatal(msg string, err error) {
	for {
		if err != nil {
			println(msg+":", err.Error())
		} else {
			println(msg)
		}
		time.Sleep(time.Second)
	}
}

func maxRollRateRad() float64  { return degToRad(600) }
func maxPitchRateRad() float64 { return degToRad(200) }
func maxYawRateRad() float64   { return degToRad(200) }

func degToRad(deg float64) float64 { return deg * 3.141592653589793 / 180 }

// escPwm adapts a single machine.PWM into the per-pin servo.PWM surface
// tinygo.org/x/drivers/servo expects.
type escPwm struct {
	pwm machine.PWM
}

func (e escPwm) Configure(config machine.PWMConfig) error        { return e.pwm.Configure(config) }
func (e escPwm) Channel(pin machine.Pin) (uint8, error)           { return e.pwm.Channel(pin) }
func (e escPwm) Top() uint32                                      { return e.pwm.Top() }
func (e escPwm) SetPeriod(period uint64) error                    { return e.pwm.SetPeriod(period) }
func (e escPwm) Set(channel uint8, value uint32)                  { e.pwm.Set(channel, value) }

var _ servo.PWM = escPwm{}

package core

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// yamlFilterSpec mirrors FilterSpec with yaml tags; kept distinct from
// FilterSpec so the wire shape can evolve independently of the in-memory
// struct the filter math actually runs on.
type yamlFilterSpec struct {
	Num  []float64 `yaml:"num"`
	Den  []float64 `yaml:"den"`
	Gain float64   `yaml:"gain"`
}

func (s yamlFilterSpec) toCore() FilterSpec {
	return FilterSpec{Num: s.Num, Den: s.Den, Gain: s.Gain}
}

// yamlSettings is the on-disk document shape loaded by YAMLSettings.
type yamlSettings struct {
	NumRotors          int         `yaml:"num_rotors"`
	VNominal           float64     `yaml:"v_nominal"`
	EnableLogging      bool        `yaml:"enable_logging"`
	EnableAltitudeHold bool        `yaml:"enable_altitude_hold"`
	SampleRateHz       float64     `yaml:"sample_rate_hz"`
	SoftStartSeconds   float64     `yaml:"soft_start_seconds"`
	TipAngle           float64     `yaml:"tip_angle"`
	MinThrustComponent float64     `yaml:"min_thrust_component"`
	MaxThrustComponent float64     `yaml:"max_thrust_component"`
	MaxRollComponent   float64     `yaml:"max_roll_component"`
	MaxPitchComponent  float64     `yaml:"max_pitch_component"`
	MaxYawComponent    float64     `yaml:"max_yaw_component"`
	MaxXComponent      float64     `yaml:"max_x_component"`
	MaxYComponent      float64     `yaml:"max_y_component"`
	AltBoundU          float64     `yaml:"alt_bound_up"`
	AltBoundD          float64     `yaml:"alt_bound_down"`

	RollController  yamlFilterSpec `yaml:"roll_controller"`
	PitchController yamlFilterSpec `yaml:"pitch_controller"`
	YawController   yamlFilterSpec `yaml:"yaw_controller"`
	AltController   yamlFilterSpec `yaml:"alt_controller"`

	// MixingMatrix is NumRotors rows, each a 6-entry [thr,roll,pitch,yaw,x,y] row.
	MixingMatrix [][]float64 `yaml:"mixing_matrix"`
}

// YAMLSettings implements SettingsProvider by reading a single YAML
// document from Path, the way a ground-station config file is handed to
// the vehicle at boot.
type YAMLSettings struct {
	Path string
}

// Load reads the YAML document at y.Path and checks the mixing_matrix
// shape; the remaining settings checks are done by Bootstrap.
func (y YAMLSettings) Load() (*Settings, error) {
	raw, err := os.ReadFile(y.Path)
	if err != nil {
		return nil, fmt.Errorf("quadfc/core: read settings %s: %w", y.Path, err)
	}
	var doc yamlSettings
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("quadfc/core: parse settings %s: %w", y.Path, err)
	}
	return doc.toCore()
}

func (doc yamlSettings) toCore() (*Settings, error) {
	if len(doc.MixingMatrix) != doc.NumRotors {
		return nil, fmt.Errorf("quadfc/core: mixing_matrix has %d rows, want num_rotors=%d", len(doc.MixingMatrix), doc.NumRotors)
	}
	flat := make([]float64, 0, doc.NumRotors*int(numAxes))
	for i, row := range doc.MixingMatrix {
		if len(row) != int(numAxes) {
			return nil, fmt.Errorf("quadfc/core: mixing_matrix row %d has %d columns, want %d", i, len(row), numAxes)
		}
		flat = append(flat, row...)
	}
	m := mat.NewDense(doc.NumRotors, int(numAxes), flat)

	return &Settings{
		NumRotors:           doc.NumRotors,
		VNominal:            doc.VNominal,
		EnableLogging:       doc.EnableLogging,
		EnableAltitudeHold:  doc.EnableAltitudeHold,
		SampleRateHz:        doc.SampleRateHz,
		SoftStartSeconds:    doc.SoftStartSeconds,
		TipAngle:            doc.TipAngle,
		MinThrustComponent:  doc.MinThrustComponent,
		MaxThrustComponent:  doc.MaxThrustComponent,
		MaxRollComponent:    doc.MaxRollComponent,
		MaxPitchComponent:   doc.MaxPitchComponent,
		MaxYawComponent:     doc.MaxYawComponent,
		MaxXComponent:       doc.MaxXComponent,
		MaxYComponent:       doc.MaxYComponent,
		AltBoundU:           doc.AltBoundU,
		AltBoundD:           doc.AltBoundD,
		RollController:      doc.RollController.toCore(),
		PitchController:     doc.PitchController.toCore(),
		YawController:       doc.YawController.toCore(),
		AltController:       doc.AltController.toCore(),
		MixingMatrix:        m,
	}, nil
}

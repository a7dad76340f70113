package core

import (
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `
num_rotors: 4
v_nominal: 12.6
enable_logging: true
enable_altitude_hold: true
sample_rate_hz: 200
soft_start_seconds: 2
tip_angle: 0.78
min_thrust_component: 0.1
max_thrust_component: 0.9
max_roll_component: 1
max_pitch_component: 1
max_yaw_component: 1
max_x_component: 1
max_y_component: 1
alt_bound_up: 2
alt_bound_down: 1

roll_controller:
  num: [1.2, -1.0]
  den: [1, -0.8]
  gain: 1

pitch_controller:
  num: [1.2, -1.0]
  den: [1, -0.8]
  gain: 1

yaw_controller:
  num: [0.8]
  den: [1]
  gain: 1

alt_controller:
  num: [0.5, -0.4]
  den: [1, -0.9]
  gain: 1

mixing_matrix:
  - [-1, -1, 1, 1, 0, 0]
  - [-1, 1, 1, -1, 0, 0]
  - [-1, 1, -1, 1, 0, 0]
  - [-1, -1, -1, -1, 0, 0]
`

func TestYAMLSettingsLoadParsesAllFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quadfc.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := YAMLSettings{Path: path}.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.NumRotors != 4 {
		t.Fatalf("NumRotors = %d, want 4", s.NumRotors)
	}
	if s.VNominal != 12.6 {
		t.Fatalf("VNominal = %v, want 12.6", s.VNominal)
	}
	if !s.EnableAltitudeHold {
		t.Fatal("EnableAltitudeHold = false, want true")
	}
	rows, cols := s.MixingMatrix.Dims()
	if rows != 4 || cols != int(numAxes) {
		t.Fatalf("MixingMatrix dims = (%d,%d), want (4,%d)", rows, cols, numAxes)
	}
	if s.MixingMatrix.At(0, 0) != -1 {
		t.Fatalf("MixingMatrix[0][0] = %v, want -1", s.MixingMatrix.At(0, 0))
	}
	if len(s.RollController.Num) != 2 || s.RollController.Num[0] != 1.2 {
		t.Fatalf("RollController.Num = %v, want [1.2 -1.0]", s.RollController.Num)
	}

	if err := validateSettings(s); err != nil {
		t.Fatalf("validateSettings on loaded settings: %v", err)
	}
}

func TestYAMLSettingsLoadRejectsMismatchedMixingMatrixRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quadfc.yaml")
	bad := `
num_rotors: 4
mixing_matrix:
  - [-1, -1, 1, 1, 0, 0]
`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := (YAMLSettings{Path: path}).Load(); err == nil {
		t.Fatal("Load with mismatched mixing_matrix row count: want error, got nil")
	}
}

func TestYAMLSettingsLoadMissingFileReturnsError(t *testing.T) {
	if _, err := (YAMLSettings{Path: "/nonexistent/quadfc.yaml"}).Load(); err == nil {
		t.Fatal("Load on missing file: want error, got nil")
	}
}

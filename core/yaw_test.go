package core

import (
	"math"
	"testing"
)

func TestYawUnwrapperTracksSlowRotationWithoutSpin(t *testing.T) {
	y := &YawUnwrapper{}
	got := y.Update(0)
	if got != 0 {
		t.Fatalf("Update(0) initial = %v, want 0", got)
	}
	got = y.Update(-0.5) // raw yaw moving "positive" once sign-flipped
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("Update(-0.5) = %v, want 0.5", got)
	}
}

func TestYawUnwrapperCountsPositiveSpin(t *testing.T) {
	y := &YawUnwrapper{}
	y.Update(0)
	// Raw yaw wraps from just over -pi to just under pi (continuing to spin
	// the same direction); numSpins should increment.
	y.Update(-math.Pi + 0.1)
	got := y.Update(math.Pi - 0.1)
	if y.NumSpins() != 1 {
		t.Fatalf("NumSpins() = %d, want 1", y.NumSpins())
	}
	want := math.Pi + 0.1
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("Update after wrap = %v, want %v", got, want)
	}
}

func TestYawUnwrapperResetSeedsFromCurrentSample(t *testing.T) {
	y := &YawUnwrapper{}
	y.Update(-math.Pi + 0.1)
	y.Update(math.Pi - 0.1) // spin up to numSpins=1
	y.Reset(0.3)
	if y.NumSpins() != 0 {
		t.Fatalf("NumSpins() after Reset = %d, want 0", y.NumSpins())
	}
	// A Reset(raw) followed by Update(raw) should behave exactly like a
	// fresh YawUnwrapper's very first Update(raw) -- the spin history
	// before Reset must not leak through.
	got := y.Update(0.3)
	fresh := (&YawUnwrapper{}).Update(0.3)
	if math.Abs(got-fresh) > 1e-9 {
		t.Fatalf("Update(0.3) right after Reset(0.3) = %v, want %v (same as a fresh unwrapper)", got, fresh)
	}
}

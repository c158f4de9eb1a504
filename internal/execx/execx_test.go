package execx

import (
	"errors"
	"fmt"
	"testing"
)

func TestLookPathMissing(t *testing.T) {
	l := NewLocal()
	err := l.LookPath("definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if !IsNotInstalled(err) {
		t.Errorf("IsNotInstalled = false for %v", err)
	}
}

func TestIsNotInstalled(t *testing.T) {
	base := &NotInstalledError{Tool: "terraform"}
	wrapped := fmt.Errorf("preflight: %w", base)
	if !IsNotInstalled(wrapped) {
		t.Error("IsNotInstalled(wrapped) = false")
	}
	if IsNotInstalled(errors.New("boom")) {
		t.Error("IsNotInstalled(other) = true")
	}
	if base.Error() == "" {
		t.Error("empty error string")
	}
}

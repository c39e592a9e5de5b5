package common

import (
	"errors"
	"testing"
)

type pauseSet map[string]bool

func (p pauseSet) IsPaused(module string) bool { return p[module] }

func TestGuard(t *testing.T) {
	view := pauseSet{"sale": true}
	if err := Guard(view, "sale"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	if err := Guard(view, "vesting"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := Guard(nil, "sale"); err != nil {
		t.Fatalf("nil view should not guard: %v", err)
	}
}

func TestRequireController(t *testing.T) {
	controller := [20]byte{7}
	if err := RequireController(controller, controller); err != nil {
		t.Fatalf("controller rejected: %v", err)
	}
	if err := RequireController(controller, [20]byte{8}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := RequireController([20]byte{}, [20]byte{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("zero controller must authorise nobody, got %v", err)
	}
}

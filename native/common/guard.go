package common

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrModulePaused = errors.New("module paused")
)

// PauseView reports whether a module is halted.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard fails with ErrModulePaused when the module is halted.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// RequireController fails unless caller is the configured controller. A zero
// controller authorises nobody.
func RequireController(controller, caller [20]byte) error {
	if controller == ([20]byte{}) || caller != controller {
		return ErrUnauthorized
	}
	return nil
}

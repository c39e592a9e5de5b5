package vesting

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"launchpad/core/amount"
	"launchpad/core/events"
	"launchpad/native/common"
)

var errNilState = errors.New("vesting engine: state not configured")

// Engine manages independent per-beneficiary vesting schedules. Entry points
// are serialised behind a single mutex and take the current time from the
// caller.
type Engine struct {
	mu      sync.Mutex
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a vesting engine backed by a fresh in-memory store.
func NewEngine() *Engine {
	return &Engine{
		state:   NewMemState(),
		emitter: events.NoopEmitter{},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(list []events.Event) {
	if e.emitter == nil {
		return
	}
	for _, evt := range list {
		e.emitter.Emit(evt)
	}
}

// Configure installs the controller and token scale. Reconfiguring keeps
// existing schedules but the token scale cannot change once any exist.
func (e *Engine) Configure(cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return errNilState
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	reg, ok, err := e.state.RegistryGet()
	if err != nil {
		return err
	}
	if ok && len(reg.Beneficiaries) > 0 && reg.TotalVesting.Decimals() != cfg.TokenDecimals {
		return fmt.Errorf("%w: token decimals cannot change once schedules exist", ErrInvalidConfig)
	}
	update := &Update{Config: &cfg}
	if !ok {
		update.Registry = &Registry{
			TotalVesting:  amount.Zero(cfg.TokenDecimals),
			TotalReleased: amount.Zero(cfg.TokenDecimals),
		}
	}
	return e.state.Commit(update)
}

func (e *Engine) load() (Config, *Registry, error) {
	if e.state == nil {
		return Config{}, nil, errNilState
	}
	cfg, ok, err := e.state.VestingConfigGet()
	if err != nil {
		return Config{}, nil, err
	}
	if !ok {
		return Config{}, nil, ErrNotConfigured
	}
	reg, ok, err := e.state.RegistryGet()
	if err != nil {
		return Config{}, nil, err
	}
	if !ok {
		return Config{}, nil, ErrNotConfigured
	}
	return *cfg, reg, nil
}

func (e *Engine) schedule(beneficiary [20]byte) (*Schedule, error) {
	record, ok, err := e.state.ScheduleGet(beneficiary)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSchedule
	}
	return record, nil
}

// CreateSchedule grants total to beneficiary, vesting linearly over duration
// seconds from now with nothing vested before cliff seconds have elapsed.
func (e *Engine) CreateSchedule(caller, beneficiary [20]byte, total amount.Amount, cliff, duration int64, revocable bool, now int64) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, reg, err := e.load()
	if err != nil {
		return nil, err
	}
	if err := common.RequireController(cfg.Controller, caller); err != nil {
		return nil, ErrUnauthorized
	}
	if beneficiary == ([20]byte{}) {
		return nil, fmt.Errorf("%w: beneficiary required", ErrInvalidAmount)
	}
	if total.IsZero() || total.Decimals() != cfg.TokenDecimals {
		return nil, fmt.Errorf("%w: total must be positive at scale %d", ErrInvalidAmount, cfg.TokenDecimals)
	}
	existing, ok, err := e.state.ScheduleGet(beneficiary)
	if err != nil {
		return nil, err
	}
	if ok {
		active, err := isActive(existing)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, ErrScheduleExists
		}
	}
	if duration <= 0 || cliff < 0 || cliff > duration || now > math.MaxInt64-duration {
		return nil, ErrInvalidDuration
	}
	vesting, err := reg.TotalVesting.Add(total)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	record := &Schedule{
		Beneficiary:    beneficiary,
		TotalAmount:    total,
		ReleasedAmount: amount.Zero(cfg.TokenDecimals),
		StartTime:      now,
		Cliff:          cliff,
		Duration:       duration,
		Revocable:      revocable,
	}
	reg.TotalVesting = vesting
	if !reg.contains(beneficiary) {
		reg.Beneficiaries = append(reg.Beneficiaries, beneficiary)
	}
	if err := e.state.Commit(&Update{Schedule: record, Registry: reg}); err != nil {
		return nil, err
	}
	emitted := []events.Event{events.VestingScheduleCreated{
		Beneficiary: beneficiary,
		TotalAmount: total,
		StartTime:   now,
		Cliff:       cliff,
		Duration:    duration,
		Revocable:   revocable,
	}}
	e.emit(emitted)
	return &Receipt{Schedule: record.Clone(), Events: emitted}, nil
}

// VestedAmount returns the amount vested for beneficiary at now.
func (e *Engine) VestedAmount(beneficiary [20]byte, now int64) (amount.Amount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, _, err := e.load(); err != nil {
		return amount.Amount{}, err
	}
	record, err := e.schedule(beneficiary)
	if err != nil {
		return amount.Amount{}, err
	}
	return vestedAt(record, now)
}

// ReleasableAmount returns the vested amount not yet released.
func (e *Engine) ReleasableAmount(beneficiary [20]byte, now int64) (amount.Amount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, _, err := e.load(); err != nil {
		return amount.Amount{}, err
	}
	record, err := e.schedule(beneficiary)
	if err != nil {
		return amount.Amount{}, err
	}
	return releasableAt(record, now)
}

// Release transfers everything currently releasable to the beneficiary. Any
// caller may trigger a release; tokens always go to the beneficiary. Releasing
// zero after the cliff is a no-op.
func (e *Engine) Release(beneficiary [20]byte, now int64) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, reg, err := e.load()
	if err != nil {
		return nil, err
	}
	record, err := e.schedule(beneficiary)
	if err != nil {
		return nil, err
	}
	vested, err := vestedAt(record, now)
	if err != nil {
		return nil, err
	}
	t := now
	if record.Revoked {
		t = record.RevokedAt
	}
	if record.ReleasedAmount.IsZero() && vested.IsZero() && t < record.CliffEnd() {
		return nil, ErrCliffNotReached
	}
	releasable, err := releasableAt(record, now)
	if err != nil {
		return nil, err
	}
	if releasable.IsZero() {
		return &Receipt{Amount: releasable, Schedule: record.Clone()}, nil
	}
	released, err := record.ReleasedAmount.Add(releasable)
	if err != nil {
		return nil, fmt.Errorf("vesting engine: released total: %w", err)
	}
	totalReleased, err := reg.TotalReleased.Add(releasable)
	if err != nil {
		return nil, fmt.Errorf("vesting engine: engine released total: %w", err)
	}
	record.ReleasedAmount = released
	reg.TotalReleased = totalReleased
	if err := e.state.Commit(&Update{Schedule: record, Registry: reg}); err != nil {
		return nil, err
	}
	emitted := []events.Event{events.TokensReleased{Beneficiary: beneficiary, Amount: releasable}}
	e.emit(emitted)
	return &Receipt{Amount: releasable, Schedule: record.Clone(), Events: emitted}, nil
}

// Revoke freezes the schedule at now. Tokens vested by then stay releasable;
// the remainder is forfeited.
func (e *Engine) Revoke(caller, beneficiary [20]byte, now int64) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, reg, err := e.load()
	if err != nil {
		return nil, err
	}
	if err := common.RequireController(cfg.Controller, caller); err != nil {
		return nil, ErrUnauthorized
	}
	record, err := e.schedule(beneficiary)
	if err != nil {
		return nil, err
	}
	if !record.Revocable {
		return nil, ErrNotRevocable
	}
	if record.Revoked {
		return nil, ErrAlreadyRevoked
	}
	record.Revoked = true
	record.RevokedAt = now
	vested, err := vestedAt(record, now)
	if err != nil {
		return nil, err
	}
	forfeited, err := record.TotalAmount.Sub(vested)
	if err != nil {
		return nil, fmt.Errorf("vesting engine: forfeited amount: %w", err)
	}
	remaining, err := reg.TotalVesting.Sub(forfeited)
	if err != nil {
		return nil, fmt.Errorf("vesting engine: total vesting: %w", err)
	}
	reg.TotalVesting = remaining
	if err := e.state.Commit(&Update{Schedule: record, Registry: reg}); err != nil {
		return nil, err
	}
	emitted := []events.Event{events.VestingRevoked{
		Beneficiary: beneficiary,
		At:          now,
		Vested:      vested,
		Forfeited:   forfeited,
	}}
	e.emit(emitted)
	return &Receipt{Schedule: record.Clone(), Events: emitted}, nil
}

package sale

import (
	"errors"
	"fmt"
	"sync"

	"launchpad/core/amount"
	"launchpad/core/events"
	"launchpad/native/common"
)

var errNilState = errors.New("sale engine: state not configured")

// Engine runs one token sale. Every entry point is serialised behind a single
// mutex and takes the current time from the caller.
type Engine struct {
	mu      sync.Mutex
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a sale engine backed by a fresh in-memory store.
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

// Configure installs the sale parameters and creates the sale record. The
// configuration may be replaced until the sale starts.
func (e *Engine) Configure(cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return errNilState
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	current, ok, err := e.state.SaleGet()
	if err != nil {
		return err
	}
	if ok && current.Phase != PhasePreparation {
		return ErrConfigLocked
	}
	record := &Sale{Phase: PhasePreparation}
	if ok {
		// Keep the controller's pause across reconfiguration.
		record.Paused = current.Paused
	}
	record.TotalRaised = amount.Zero(cfg.PaymentDecimals())
	record.TotalAllocated = amount.Zero(cfg.TokenDecimals)
	return e.state.Commit(&Update{Config: &cfg, Sale: record})
}

// Configured reports whether a configuration has been installed.
func (e *Engine) Configured() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return false, errNilState
	}
	_, ok, err := e.state.SaleConfigGet()
	return ok, err
}

func (e *Engine) load() (Config, *Sale, error) {
	if e.state == nil {
		return Config{}, nil, errNilState
	}
	cfg, ok, err := e.state.SaleConfigGet()
	if err != nil {
		return Config{}, nil, err
	}
	if !ok {
		return Config{}, nil, ErrNotConfigured
	}
	record, ok, err := e.state.SaleGet()
	if err != nil {
		return Config{}, nil, err
	}
	if !ok {
		return Config{}, nil, ErrNotConfigured
	}
	return *cfg, record, nil
}

func (e *Engine) contribution(cfg Config, participant [20]byte) (*Contribution, bool, error) {
	record, ok, err := e.state.ContributionGet(participant)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &Contribution{
			Participant:      participant,
			CumulativeAmount: amount.Zero(cfg.PaymentDecimals()),
			AllocatedTokens:  amount.Zero(cfg.TokenDecimals),
		}, false, nil
	}
	return record, true, nil
}

// Start opens the sale for contributions.
func (e *Engine) Start(caller [20]byte, now int64) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, record, err := e.load()
	if err != nil {
		return nil, err
	}
	if err := common.RequireController(cfg.Controller, caller); err != nil {
		return nil, ErrUnauthorized
	}
	if record.Phase != PhasePreparation {
		return nil, ErrAlreadyStarted
	}
	record.Phase = PhaseActive
	record.StartTime = now
	record.EndTime = now + cfg.SaleDuration
	if err := e.state.Commit(&Update{Sale: record}); err != nil {
		return nil, err
	}
	emitted := []events.Event{events.SaleStarted{StartTime: record.StartTime, EndTime: record.EndTime}}
	e.emit(emitted)
	return &Receipt{Sale: record.Clone(), Events: emitted}, nil
}

// Purchase records a contribution of amt from participant.
func (e *Engine) Purchase(participant [20]byte, amt amount.Amount, now int64) (*PurchaseReceipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.purchase(participant, nil, amt, now)
}

// PurchaseWithReferral records a contribution and attributes it to referrer.
// The first referrer recorded for a participant is kept for later purchases.
func (e *Engine) PurchaseWithReferral(participant, referrer [20]byte, amt amount.Amount, now int64) (*PurchaseReceipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.purchase(participant, &referrer, amt, now)
}

func (e *Engine) purchase(participant [20]byte, referrer *[20]byte, amt amount.Amount, now int64) (*PurchaseReceipt, error) {
	cfg, record, err := e.load()
	if err != nil {
		return nil, err
	}
	if participant == ([20]byte{}) {
		return nil, ErrInvalidParticipant
	}
	if record.Phase != PhaseActive || now < record.StartTime || now >= record.EndTime {
		return nil, ErrSaleNotActive
	}
	if record.Paused {
		return nil, ErrSalePaused
	}
	if referrer != nil && (*referrer == ([20]byte{}) || *referrer == participant) {
		return nil, ErrInvalidReferrer
	}
	if amt.Decimals() != cfg.PaymentDecimals() {
		return nil, fmt.Errorf("%w: expected scale %d, got %d", ErrInvalidAmount, cfg.PaymentDecimals(), amt.Decimals())
	}
	if record.TotalRaised.Cmp(cfg.HardCap) >= 0 {
		return nil, ErrHardCapReached
	}
	if amt.IsZero() || amt.Cmp(cfg.MinContribution) < 0 {
		return nil, ErrBelowMinContribution
	}
	contribution, existed, err := e.contribution(cfg, participant)
	if err != nil {
		return nil, err
	}
	cumulative, err := contribution.CumulativeAmount.Add(amt)
	if err != nil || cumulative.Cmp(cfg.MaxContribution) > 0 {
		return nil, ErrExceedsMaxContribution
	}
	raised, err := record.TotalRaised.Add(amt)
	if err != nil || raised.Cmp(cfg.HardCap) > 0 {
		return nil, ErrHardCapReached
	}
	allocation, err := allocationFor(cfg, cumulative)
	if err != nil {
		return nil, fmt.Errorf("sale engine: allocation: %w", err)
	}
	delta, err := allocation.Sub(contribution.AllocatedTokens)
	if err != nil {
		return nil, fmt.Errorf("sale engine: allocation delta: %w", err)
	}
	allocated, err := record.TotalAllocated.Add(delta)
	if err != nil {
		return nil, fmt.Errorf("sale engine: total allocation: %w", err)
	}

	update := &Update{Sale: record, Contributions: []*Contribution{contribution}}
	var attributed *[20]byte
	if referrer != nil {
		firstAttribution := !contribution.HasReferrer()
		if firstAttribution {
			contribution.Referrer = *referrer
		}
		credited := contribution.Referrer
		stats, ok, err := e.state.ReferralGet(credited)
		if err != nil {
			return nil, err
		}
		if !ok {
			stats = &ReferralStats{Referrer: credited, ReferredAmount: amount.Zero(cfg.PaymentDecimals())}
		}
		referred, err := stats.ReferredAmount.Add(amt)
		if err != nil {
			return nil, fmt.Errorf("sale engine: referral total: %w", err)
		}
		stats.ReferredAmount = referred
		if firstAttribution {
			stats.ReferredCount++
		}
		update.Referrals = []*ReferralStats{stats}
		attributed = &credited
	}

	if !existed || contribution.CumulativeAmount.IsZero() {
		record.ParticipantCount++
	}
	contribution.CumulativeAmount = cumulative
	contribution.AllocatedTokens = allocation
	record.TotalRaised = raised
	record.TotalAllocated = allocated
	if err := e.state.Commit(update); err != nil {
		return nil, err
	}
	emitted := []events.Event{events.TokensPurchased{
		Participant:   participant,
		Referrer:      attributed,
		PaymentAmount: amt,
		TokenAmount:   delta,
	}}
	e.emit(emitted)
	return &PurchaseReceipt{
		Contribution: contribution.Clone(),
		TokenAmount:  delta,
		Sale:         record.Clone(),
		Events:       emitted,
	}, nil
}

func hasEnded(cfg Config, record *Sale, now int64) bool {
	return now >= record.EndTime || record.TotalRaised.Cmp(cfg.HardCap) >= 0
}

func effectivePhase(cfg Config, record *Sale, now int64) Phase {
	if record.Phase == PhaseActive && hasEnded(cfg, record, now) {
		return PhaseFinalization
	}
	return record.Phase
}

// HasEnded reports whether the sale window has closed, either because time ran
// out or because the hard cap was reached. It does not consult the phase.
func (e *Engine) HasEnded(now int64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, record, err := e.load()
	if err != nil {
		return false, err
	}
	return hasEnded(cfg, record, now), nil
}

// EffectivePhase reports the stored phase, except that an ACTIVE sale whose
// window has closed reports FINALIZATION until Finalize is called.
func (e *Engine) EffectivePhase(now int64) (Phase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, record, err := e.load()
	if err != nil {
		return 0, err
	}
	return effectivePhase(cfg, record, now), nil
}

// Finalize settles the sale outcome once the window has closed.
func (e *Engine) Finalize(caller [20]byte, now int64) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, record, err := e.load()
	if err != nil {
		return nil, err
	}
	if err := common.RequireController(cfg.Controller, caller); err != nil {
		return nil, ErrUnauthorized
	}
	if record.Finalized {
		return nil, ErrAlreadyFinalized
	}
	if record.Phase != PhaseActive || !hasEnded(cfg, record, now) {
		return nil, ErrSaleNotEnded
	}
	record.Finalized = true
	record.Successful = record.TotalRaised.Cmp(cfg.SoftCap) >= 0
	if record.Successful {
		record.Phase = PhaseClaim
		if record.ParticipantCount == 0 {
			record.Phase = PhaseEnded
		}
	} else {
		record.Phase = PhaseEnded
	}
	if err := e.state.Commit(&Update{Sale: record}); err != nil {
		return nil, err
	}
	emitted := []events.Event{events.SaleFinalized{Successful: record.Successful, TotalRaised: record.TotalRaised}}
	e.emit(emitted)
	return &Receipt{Sale: record.Clone(), Events: emitted}, nil
}

// Pause halts purchases. Phase transitions and settlement are unaffected.
func (e *Engine) Pause(caller [20]byte) (*Receipt, error) {
	return e.setPaused(caller, true)
}

// Unpause resumes purchases.
func (e *Engine) Unpause(caller [20]byte) (*Receipt, error) {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller [20]byte, paused bool) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, record, err := e.load()
	if err != nil {
		return nil, err
	}
	if err := common.RequireController(cfg.Controller, caller); err != nil {
		return nil, ErrUnauthorized
	}
	if record.Paused == paused {
		if paused {
			return nil, ErrSalePaused
		}
		return nil, ErrNotPaused
	}
	record.Paused = paused
	if err := e.state.Commit(&Update{Sale: record}); err != nil {
		return nil, err
	}
	var evt events.Event = events.SaleUnpaused{By: caller}
	if paused {
		evt = events.SalePaused{By: caller}
	}
	emitted := []events.Event{evt}
	e.emit(emitted)
	return &Receipt{Sale: record.Clone(), Events: emitted}, nil
}

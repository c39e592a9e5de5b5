package vesting

import "launchpad/core/amount"

// Schedule returns a copy of the beneficiary's schedule.
func (e *Engine) Schedule(beneficiary [20]byte) (*Schedule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, _, err := e.load(); err != nil {
		return nil, err
	}
	return e.schedule(beneficiary)
}

// Config returns the engine configuration.
func (e *Engine) Config() (Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, _, err := e.load()
	return cfg, err
}

// Status returns the schedule with its vested, releasable and forfeited
// amounts evaluated at now.
func (e *Engine) Status(beneficiary [20]byte, now int64) (*Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, _, err := e.load(); err != nil {
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
	releasable, err := releasableAt(record, now)
	if err != nil {
		return nil, err
	}
	forfeited, err := forfeitedOf(record)
	if err != nil {
		return nil, err
	}
	active, err := isActive(record)
	if err != nil {
		return nil, err
	}
	return &Status{
		Schedule:   record,
		Vested:     vested,
		Releasable: releasable,
		Forfeited:  forfeited,
		Active:     active,
	}, nil
}

// Forfeited returns the unvested remainder of a revoked grant, or zero for a
// schedule that was never revoked.
func (e *Engine) Forfeited(beneficiary [20]byte) (amount.Amount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, _, err := e.load(); err != nil {
		return amount.Amount{}, err
	}
	record, err := e.schedule(beneficiary)
	if err != nil {
		return amount.Amount{}, err
	}
	return forfeitedOf(record)
}

// Beneficiaries lists every beneficiary in the order of their first grant.
func (e *Engine) Beneficiaries() ([][20]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, reg, err := e.load()
	if err != nil {
		return nil, err
	}
	return reg.Beneficiaries, nil
}

// BeneficiaryCount returns the number of distinct beneficiaries.
func (e *Engine) BeneficiaryCount() (int, error) {
	list, err := e.Beneficiaries()
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// Totals summarises granted and released amounts across all schedules.
func (e *Engine) Totals() (*Totals, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, reg, err := e.load()
	if err != nil {
		return nil, err
	}
	return &Totals{
		TotalVesting:     reg.TotalVesting,
		TotalReleased:    reg.TotalReleased,
		BeneficiaryCount: len(reg.Beneficiaries),
	}, nil
}

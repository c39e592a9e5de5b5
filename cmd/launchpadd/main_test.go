package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"launchpad/config"
	"launchpad/crypto"
	"launchpad/native/sale"
	"launchpad/storage"
)

const (
	testController  = "0x00000000000000000000000000000000000000aa"
	testBeneficiary = "0x00000000000000000000000000000000000000bb"
	bootTime        = int64(1_700_000_000)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Sale.Controller = testController
	cfg.Storage.Backend = backend
	cfg.Storage.Path = filepath.Join(t.TempDir(), "data")
	cfg.Vesting.Grants = []config.GrantConfig{{
		Beneficiary: testBeneficiary,
		Amount:      "1000",
		Cliff:       "720h",
		Duration:    "8760h",
		Revocable:   true,
	}}
	path := filepath.Join(t.TempDir(), "launchpad.toml")
	require.NoError(t, config.Save(path, cfg))
	loaded, err := config.Load(path)
	require.NoError(t, err)
	return loaded
}

func TestBootstrapConfiguresEnginesAndSeedsGrants(t *testing.T) {
	cfg := testConfig(t, storage.BackendMemory)
	app, err := bootstrap(cfg, discardLogger(), bootTime)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	info, err := app.sale.Info(bootTime)
	require.NoError(t, err)
	require.Equal(t, sale.PhasePreparation, info.Phase)
	require.Equal(t, "22500", info.HardCap.String())

	beneficiary, err := crypto.ParseIdentity(testBeneficiary)
	require.NoError(t, err)
	schedule, err := app.vesting.Schedule(beneficiary)
	require.NoError(t, err)
	require.Equal(t, bootTime, schedule.StartTime)
	require.Equal(t, int64(30*24*60*60), schedule.Cliff)
	require.Equal(t, "1000", schedule.TotalAmount.String())
	require.NotNil(t, app.server)
}

func TestBootstrapRestoresPersistedState(t *testing.T) {
	for _, backend := range []string{storage.BackendLevelDB, storage.BackendBolt} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			controller, err := crypto.ParseIdentity(testController)
			require.NoError(t, err)

			app, err := bootstrap(cfg, discardLogger(), bootTime)
			require.NoError(t, err)
			_, err = app.sale.Start(controller, bootTime+60)
			require.NoError(t, err)
			require.NoError(t, app.Close())

			// A second boot keeps the started sale and does not reseed the grant.
			cfg.Sale.HardCap = "20000"
			app, err = bootstrap(cfg, discardLogger(), bootTime+3600)
			require.NoError(t, err)
			t.Cleanup(func() { _ = app.Close() })

			record, err := app.sale.Sale()
			require.NoError(t, err)
			require.Equal(t, sale.PhaseActive, record.Phase)
			params, err := app.sale.Config()
			require.NoError(t, err)
			require.Equal(t, "22500", params.HardCap.String())

			totals, err := app.vesting.Totals()
			require.NoError(t, err)
			require.Equal(t, 1, totals.BeneficiaryCount)
			require.Equal(t, "1000", totals.TotalVesting.String())
		})
	}
}

func TestRunInitWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launchpad.toml")
	var stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-init", path}, &stderr))
	require.Contains(t, stderr.String(), "sale.controller")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "token_price")

	require.Error(t, run(context.Background(), []string{"-init", path}, &stderr))
	// the default config has no controller and must not load
	require.Error(t, run(context.Background(), []string{"-config", path}, &stderr))
}

func TestLogEmitterWritesEvents(t *testing.T) {
	var buf bytes.Buffer
	emitter := logEmitter{logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	cfg := testConfig(t, storage.BackendMemory)
	app, err := bootstrap(cfg, discardLogger(), bootTime)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	app.sale.SetEmitter(emitter)

	controller, err := crypto.ParseIdentity(testController)
	require.NoError(t, err)
	_, err = app.sale.Start(controller, bootTime)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"event":"sale.started"`)
}

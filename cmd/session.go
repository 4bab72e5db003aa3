// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"inventoryops/cli/internal/backend"
	"inventoryops/cli/internal/config"
	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/httperrors"
	"inventoryops/cli/internal/keychain"
	"inventoryops/cli/internal/logging"
	"inventoryops/cli/internal/marketsync"
	"inventoryops/cli/internal/ops"
	"inventoryops/cli/internal/report"
	"inventoryops/cli/internal/runner"
)

// session holds the collaborators shared by one invocation. The datastore
// is opened on first use, so a rejected invocation never connects.
type session struct {
	cfg    *config.Config
	log    *pterm.Logger
	store  *backend.Deferred
	sync   *marketsync.Client
	runner *runner.Runner
	render *report.Renderer
}

// openSecrets returns the keychain fallback for credentials.
var openSecrets = func() (config.SecretStore, error) {
	km, err := keychain.GetManager()
	if err != nil {
		return nil, err
	}
	return km, nil
}

// loadConfig resolves configuration for cmd, falling back to the keychain
// for secrets.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := config.LoadOptions{
		ConfigFile: configFile,
		DotEnv:     []string{".env"},
		Flags:      cmd.Flags(),
	}
	if secrets, err := openSecrets(); err == nil {
		opts.Secrets = secrets
	}
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.MissingConfiguration, "cannot load configuration", err)
	}
	switch cfg.Output {
	case config.OutputTable, config.OutputJSON, config.OutputYAML:
		errorFormat = cfg.Output
	}
	return cfg, nil
}

// openSession loads and validates configuration and wires the runner.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == config.BackendREST {
		errorHost = httperrors.ExtractHostFromURL(cfg.Datastore.URL)
	}

	s := &session{
		cfg:    cfg,
		log:    logging.New(os.Stderr, cfg.Verbose),
		render: report.New(cmd.OutOrStdout(), cfg.Output),
	}
	s.store = backend.Lazy(cfg, s.log)

	deps := runner.Deps{Store: s.store, Log: s.log}
	if cfg.Sync.Address != "" {
		s.sync, err = marketsync.Dial(cfg.Sync.Address, marketsync.Options{
			Insecure: cfg.Sync.Insecure,
			Token:    cfg.Datastore.ServiceKey,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.MissingConfiguration, "invalid sync service address", err)
		}
		deps.Sync = s.sync
	}

	reg := runner.NewRegistry()
	if err := ops.Register(reg, cfg.Presets); err != nil {
		s.Close()
		return nil, apperrors.Wrap(apperrors.MissingConfiguration, "invalid preset configuration", err)
	}
	s.runner = runner.New(reg, deps)
	return s, nil
}

// Close releases the datastore and sync connections.
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Warn(logging.PresentError("closing datastore", err))
	}
	if s.sync != nil {
		if err := s.sync.Close(); err != nil {
			s.log.Warn(logging.PresentError("closing sync connection", err))
		}
	}
}

// runOperation executes name with raw parameters and renders the result.
// A sync report with success=false is rendered and then returned as a
// SyncFailed error.
func runOperation(cmd *cobra.Command, name string, raw map[string][]string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	stop := func() {}
	if s.render.Format() == config.OutputTable && !s.cfg.Verbose {
		stop = startSpinner("Running " + name + "...")
	}
	res, err := s.runner.Run(cmd.Context(), name, raw)
	stop()
	if err != nil {
		return err
	}
	if err := s.render.Result(res); err != nil {
		return err
	}

	if sr, ok := res.Payload.(*marketsync.SyncResult); ok && !sr.Success {
		msg := "sync reported failure"
		if sr.Error != nil && *sr.Error != "" {
			msg += ": " + *sr.Error
		}
		return apperrors.New(apperrors.SyncFailed, msg).WithOperation(name)
	}
	return nil
}

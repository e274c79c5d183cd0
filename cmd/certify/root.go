package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ubirch/go-certify/certify"
	"github.com/ubirch/go-certify/client"
	"github.com/ubirch/go-certify/config"
	"github.com/ubirch/go-certify/core/failure"
)

// serviceFactory builds the trust service client. anchoring is set when the
// command needs to anchor and therefore the client certificate.
type serviceFactory func(cfg config.Config, anchoring bool, logger *slog.Logger) (client.TrustService, error)

func newTrustService(cfg config.Config, anchoring bool, logger *slog.Logger) (client.TrustService, error) {
	opts, err := cfg.ClientOptions(anchoring)
	if err != nil {
		return nil, err
	}
	opts = append(opts, client.WithLogger(logger))
	return client.New(cfg.Env, opts...)
}

func newRootCommand(services serviceFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "certify",
		Short:         "Create and verify data certificates anchored with the ubirch trust service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("loglevel", "", "set the log level (debug, info, warn, error); overrides LOGLEVEL")
	cmd.PersistentFlags().StringP("logformat", "f", "text", "set the log format (text, json)")

	cmd.AddCommand(newCreateCommand(services), newVerifyCommand(services))
	return cmd
}

// setup loads the configuration and builds the logger and certifier shared by
// the sub commands.
func setup(cmd *cobra.Command, services serviceFactory, anchoring bool) (config.Config, *certify.Certifier, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger, err := baseLogger(cmd, cfg)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	svc, err := services(cfg, anchoring, logger)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, certify.New(svc, certify.WithPrefix(cfg.Prefix), certify.WithLogger(logger)), logger, nil
}

// logFailure logs where a failure was raised at debug level and returns err.
func logFailure(logger *slog.Logger, err error) error {
	var traced failure.WithStackTrace
	if errors.As(err, &traced) {
		logger.Debug("command failed", "failure", failure.NameOf(err), "stack", traced.Stack())
	}
	return err
}

func baseLogger(cmd *cobra.Command, cfg config.Config) (*slog.Logger, error) {
	name := cfg.LogLevel
	if flag := cmd.Flag("loglevel").Value.String(); flag != "" {
		name = flag
	}
	level, err := config.ParseLogLevel(name)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch format := cmd.Flag("logformat").Value.String(); format {
	case "json":
		return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
}

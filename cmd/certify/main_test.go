package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ubirch/go-certify/client"
	"github.com/ubirch/go-certify/config"
	"github.com/ubirch/go-certify/testing/trustservice"
)

func fakeServices(svc *trustservice.Server) serviceFactory {
	return func(cfg config.Config, anchoring bool, logger *slog.Logger) (client.TrustService, error) {
		return client.New(cfg.Env,
			client.WithAnchorURL(svc.AnchorURL()),
			client.WithVerifyURL(svc.VerifyURL()),
			client.WithAnchorHTTPClient(svc.Client()),
			client.WithVerifyHTTPClient(svc.Client()),
			client.WithBearerToken(cfg.VerifyToken),
			client.WithLogger(logger),
		)
	}
}

func run(t *testing.T, services serviceFactory, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(services)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCreateAndVerify(t *testing.T) {
	svc := trustservice.New(trustservice.WithToken("token"))
	t.Cleanup(svc.Close)
	services := fakeServices(svc)

	t.Setenv("UBIRCH_ENV", "test")
	t.Setenv("UBIRCH_IDENTITY_UUID", uuid.NewString())
	t.Setenv("UBIRCH_VERIFY_TOKEN", "token")

	out, logs, err := run(t, services, "create", `{"temp": 21.5, "unit": "C"}`, "--loglevel", "debug")
	require.NoError(t, err)
	cert := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(cert, "C01:"))
	require.Contains(t, logs, "payload hash")

	out, _, err = run(t, services, "verify", cert, "--logformat", "json")
	require.NoError(t, err)
	require.Equal(t, `{"temp":21.5,"unit":"C"}`, strings.TrimSpace(out))

	t.Run("anchoring twice fails", func(t *testing.T) {
		_, _, err := run(t, services, "create", `{"temp": 21.5, "unit": "C"}`)
		require.Error(t, err)
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "payload.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"temp": 22.0}`), 0o600))
		out, _, err := run(t, services, "create", "--file", path)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(out, "C01:"))
	})
}

func TestVerifyUnknown(t *testing.T) {
	svc := trustservice.New()
	t.Cleanup(svc.Close)
	t.Setenv("UBIRCH_VERIFY_TOKEN", "token")

	// a certificate anchored with another service instance
	other := trustservice.New()
	t.Cleanup(other.Close)
	t.Setenv("UBIRCH_IDENTITY_UUID", uuid.NewString())
	out, _, err := run(t, fakeServices(other), "create", `{"a": 1}`)
	require.NoError(t, err)

	_, _, err = run(t, fakeServices(svc), "verify", strings.TrimSpace(out))
	require.ErrorIs(t, err, errNotVerified)
}

func TestCreateRequiresIdentity(t *testing.T) {
	svc := trustservice.New()
	t.Cleanup(svc.Close)
	t.Setenv("UBIRCH_IDENTITY_UUID", "")
	os.Unsetenv("UBIRCH_IDENTITY_UUID")

	_, _, err := run(t, fakeServices(svc), "create", `{"a": 1}`)
	require.ErrorContains(t, err, "UBIRCH_IDENTITY_UUID")
}

func TestCreateArguments(t *testing.T) {
	svc := trustservice.New()
	t.Cleanup(svc.Close)

	_, _, err := run(t, fakeServices(svc), "create")
	require.ErrorContains(t, err, "missing JSON data map")

	_, _, err = run(t, fakeServices(svc), "create", `{}`, "--file", "x.json")
	require.ErrorContains(t, err, "not both")

	_, _, err = run(t, fakeServices(svc), "verify", "C01:x", "--logformat", "xml")
	require.ErrorContains(t, err, "invalid log format")
}

func TestFailureReport(t *testing.T) {
	svc := trustservice.New(trustservice.WithToken("token"))
	t.Cleanup(svc.Close)
	t.Setenv("UBIRCH_IDENTITY_UUID", uuid.NewString())

	_, _, err := run(t, fakeServices(svc), "create", `{"n": 1}`)
	require.NoError(t, err)

	var stderr bytes.Buffer
	cmd := newRootCommand(fakeServices(svc))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"create", `{"n": 1}`, "--loglevel", "debug"})
	require.Equal(t, 1, execute(cmd))
	require.Contains(t, stderr.String(), "ServiceConflict: this data has already been anchored before")
	require.Contains(t, stderr.String(), "failure=ServiceConflict")
	require.Contains(t, stderr.String(), "stack=")

	t.Run("malformed certificate", func(t *testing.T) {
		var stderr bytes.Buffer
		cmd := newRootCommand(fakeServices(svc))
		cmd.SetErr(&stderr)
		cmd.SetArgs([]string{"verify", "C01:not-valid-base45!!"})
		require.Equal(t, 1, execute(cmd))
		require.Contains(t, stderr.String(), "FormatError: decoding certificate")
		require.NotContains(t, stderr.String(), "stack=")
	})

	t.Run("success", func(t *testing.T) {
		cmd := newRootCommand(fakeServices(svc))
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"create", `{"n": 2}`})
		require.Equal(t, 0, execute(cmd))
	})
}

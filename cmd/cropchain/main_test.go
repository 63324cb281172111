package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropchain/internal/platform/config"
	"cropchain/internal/platform/logger"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := messagesCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMessagesCommand(t *testing.T) {
	const wallet = "0x52908400098527886E0F7030069857D2E4169EE7"

	t.Run("link", func(t *testing.T) {
		out, err := runCommand(t, "link", "--wallet", wallet)
		require.NoError(t, err)
		assert.Equal(t, "Link wallet "+wallet+" to CropChain account\n", out)
	})

	t.Run("verify", func(t *testing.T) {
		out, err := runCommand(t, "verify", "--name", "Ravi", "--email", "ravi@example.com", "--wallet", wallet)
		require.NoError(t, err)
		assert.Equal(t, "Verify user Ravi (ravi@example.com) with wallet "+wallet+"\n", out)
	})

	t.Run("rejects non-hex wallet", func(t *testing.T) {
		_, err := runCommand(t, "link", "--wallet", "not-a-wallet")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid wallet address")
	})
}

func TestVersionCommand(t *testing.T) {
	cmd := versionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "cropchain dev\n", out.String())
}

func TestBuildAppInMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.AdminToken = "operator-secret"
	cfg.Pricing.RefreshInterval = 0
	cfg.Dev.SeedBatches = true

	a, err := buildApp(context.Background(), &cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalBatches":3`)

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jakechorley/hut-allocator/internal/config"
)

func TestMissingScopes(t *testing.T) {
	assert.Empty(t, missingScopes(ScopeSheets+" "+ScopeGmailSend+" openid"))
	assert.Equal(t, []string{ScopeGmailSend}, missingScopes(ScopeSheets))
	assert.Equal(t, requiredScopes(), missingScopes(""))
}

func TestTokenFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	token, err := LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, token, "no file yet")

	saved := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, SaveTokenToFile("test", saved))

	info, err := os.Stat(filepath.Join(home, tokenDirName, "token-test.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(tokenFilePerms), info.Mode().Perm())

	loaded, err := LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Equal(t, saved.AccessToken, loaded.AccessToken)
	assert.Equal(t, saved.RefreshToken, loaded.RefreshToken)
	assert.True(t, saved.Expiry.Equal(loaded.Expiry))

	require.NoError(t, DeleteTokenFile("test"))
	require.NoError(t, DeleteTokenFile("test"), "deleting twice is fine")

	token, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, token)
}

func TestGetOAuthConfig(t *testing.T) {
	oauthCfg := &config.OAuthClientConfig{Installed: config.OAuthInstalled{
		ClientID:                "client-id",
		ProjectID:               "huts",
		AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
		TokenURI:                "https://oauth2.googleapis.com/token",
		AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
		ClientSecret:            "secret",
		RedirectURIs:            []string{"http://localhost"},
	}}

	cfg, err := GetOAuthConfig(oauthCfg)
	require.NoError(t, err)
	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Equal(t, requiredScopes(), cfg.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", cfg.RedirectURL)
}

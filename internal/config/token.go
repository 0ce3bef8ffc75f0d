package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	tokenEnv       = "RESPLAN_API_TOKEN"
	keyringService = "resplan"
	keyringAccount = "api-token"
)

// TokenSource tells where an API token came from.
type TokenSource string

// Token sources in lookup order.
const (
	TokenFromEnv     TokenSource = "env"
	TokenFromKeyring TokenSource = "keyring"
	TokenFromFile    TokenSource = "config"
	TokenNone        TokenSource = "none"
)

// GetAPIToken returns the API token from env var, OS keyring or config, in that order.
func GetAPIToken(cfg Config) (string, TokenSource) {
	if tok := os.Getenv(tokenEnv); tok != "" {
		return tok, TokenFromEnv
	}
	if tok, err := keyring.Get(keyringService, keyringAccount); err == nil && tok != "" {
		return tok, TokenFromKeyring
	}
	if cfg.API.Token != "" {
		return cfg.API.Token, TokenFromFile
	}
	return "", TokenNone
}

// StoreAPIToken saves the token in the OS keyring.
func StoreAPIToken(token string) error {
	if err := keyring.Set(keyringService, keyringAccount, token); err != nil {
		return fmt.Errorf("storing token in keyring: %w", err)
	}
	return nil
}

// DeleteAPIToken removes the token from the OS keyring. A missing entry is not an error.
func DeleteAPIToken() error {
	err := keyring.Delete(keyringService, keyringAccount)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting token from keyring: %w", err)
	}
	return nil
}

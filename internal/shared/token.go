package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

// TokenFile is the on-disk form of a cached OAuth2 token.
type TokenFile struct {
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenType    string    `toml:"token_type"`
	Expiry       time.Time `toml:"expiry"`
}

// Token converts the cached values to an [oauth2.Token].
func (t TokenFile) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

// LoadToken reads a cached token. A missing file yields [ErrNotAuthenticated].
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no cached token at %s", ErrNotAuthenticated, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tf TokenFile
	if err := toml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	if tf.AccessToken == "" && tf.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file %s is empty", ErrNotAuthenticated, path)
	}

	return tf.Token(), nil
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", ErrInvalidInput)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open token file: %w", err)
	}
	defer f.Close()

	tf := TokenFile{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
	if err := toml.NewEncoder(f).Encode(tf); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

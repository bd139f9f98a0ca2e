// Package credentials manages the symmetric key that encrypts the local
// meeting store.
//
// Key sources, in priority order:
//   - MEETWISE_ENCRYPTION_KEY environment variable (CI/testing)
//   - system keyring (macOS Keychain, Windows Credential Manager,
//     Linux Secret Service)
//   - passphrase derived via Argon2id, with a random salt persisted next
//     to the data directory
//
// The passphrase fallback stores its salt in plain local storage
// alongside the ciphertext, so it protects against casual inspection of
// the raw store, not against an attacker with access to the same user
// profile. The keyring path does not share that limitation.
package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/argon2"
	"golang.org/x/term"
)

const (
	// keyringService is the service name used in the system keyring.
	keyringService = "meetwise-cli"
	// keyringUser is the account name used in the system keyring.
	keyringUser = "store-encryption-key"
	// KeyLength is the encryption key length (256 bits for AES-256).
	KeyLength = 32
	// SaltFileName is the salt file persisted in the data directory for
	// passphrase-derived keys.
	SaltFileName = "key.salt"

	// EnvKeyVar names the environment variable holding a hex key.
	EnvKeyVar = "MEETWISE_ENCRYPTION_KEY"
)

// Argon2id parameters for passphrase-based key derivation.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
)

// ErrKeyringUnavailable indicates the system keyring is not available.
var ErrKeyringUnavailable = errors.New("system keyring unavailable")

// KeyProvider is an interface for obtaining the store encryption key.
type KeyProvider interface {
	// GetKey returns the 32-byte encryption key, generating and storing
	// a new one if none exists.
	GetKey() ([]byte, error)

	// Description returns a human-readable description of the key
	// storage mechanism.
	Description() string
}

// KeyringKeyProvider stores a random encryption key in the system
// keyring.
type KeyringKeyProvider struct {
	mu sync.Mutex
}

// NewKeyringKeyProvider creates a new KeyringKeyProvider.
func NewKeyringKeyProvider() *KeyringKeyProvider {
	return &KeyringKeyProvider{}
}

// GetKey retrieves the encryption key from the system keyring,
// generating and storing a fresh random key on first use.
func (p *KeyringKeyProvider) GetKey() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keyHex, err := keyring.Get(keyringService, keyringUser)
	if err == nil {
		key, decErr := hex.DecodeString(keyHex)
		if decErr == nil && len(key) == KeyLength {
			return key, nil
		}
		// Invalid key format, regenerate.
	}

	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}

	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating random key: %w", err)
	}
	if err := keyring.Set(keyringService, keyringUser, hex.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("%w: storing key: %v", ErrKeyringUnavailable, err)
	}
	return key, nil
}

// Description returns a description of this key provider.
func (p *KeyringKeyProvider) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}

// PassphraseKeyProvider derives the encryption key from a user-provided
// passphrase using Argon2id with a persisted per-installation salt.
type PassphraseKeyProvider struct {
	passphrase string
	salt       []byte
}

// NewPassphraseKeyProvider creates a new PassphraseKeyProvider. The salt
// is stored alongside the encrypted data; see the package comment for
// the threat model.
func NewPassphraseKeyProvider(passphrase string, salt []byte) *PassphraseKeyProvider {
	return &PassphraseKeyProvider{passphrase: passphrase, salt: salt}
}

// GetKey derives the encryption key from the passphrase.
func (p *PassphraseKeyProvider) GetKey() ([]byte, error) {
	if p.passphrase == "" {
		return nil, errors.New("passphrase is required")
	}
	if len(p.salt) == 0 {
		return nil, errors.New("salt is required")
	}
	key := argon2.IDKey([]byte(p.passphrase), p.salt, argon2Time, argon2Memory, argon2Threads, KeyLength)
	return key, nil
}

// Description returns a description of this key provider.
func (p *PassphraseKeyProvider) Description() string {
	return "Passphrase-derived key (Argon2id)"
}

// EnvKeyProvider reads the encryption key from an environment variable.
// This is primarily for testing and CI environments.
type EnvKeyProvider struct {
	envVar string
}

// NewEnvKeyProvider creates a new EnvKeyProvider reading the given env var.
func NewEnvKeyProvider(envVar string) *EnvKeyProvider {
	return &EnvKeyProvider{envVar: envVar}
}

// GetKey returns the key from the environment variable.
func (p *EnvKeyProvider) GetKey() ([]byte, error) {
	keyHex := os.Getenv(p.envVar)
	if keyHex == "" {
		return nil, fmt.Errorf("environment variable %s not set", p.envVar)
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid key in %s: %w", p.envVar, err)
	}
	if len(key) != KeyLength {
		return nil, fmt.Errorf("key in %s must be %d bytes, got %d", p.envVar, KeyLength, len(key))
	}
	return key, nil
}

// Description returns a description of this key provider.
func (p *EnvKeyProvider) Description() string {
	return fmt.Sprintf("Environment variable (%s)", p.envVar)
}

// StaticKeyProvider wraps a fixed key, used by tests.
type StaticKeyProvider struct {
	Key []byte
}

// GetKey returns the fixed key.
func (p *StaticKeyProvider) GetKey() ([]byte, error) {
	if len(p.Key) != KeyLength {
		return nil, fmt.Errorf("static key must be %d bytes, got %d", KeyLength, len(p.Key))
	}
	return p.Key, nil
}

// Description returns a description of this key provider.
func (p *StaticKeyProvider) Description() string { return "Static key" }

// LoadOrCreateSalt returns the persisted salt from dataDir, generating
// and writing a fresh random 16-byte salt on first use.
func LoadOrCreateSalt(dataDir string) ([]byte, error) {
	path := filepath.Join(dataDir, SaltFileName)

	data, err := os.ReadFile(path)
	if err == nil {
		salt, decErr := hex.DecodeString(string(data))
		if decErr == nil && len(salt) > 0 {
			return salt, nil
		}
		// Corrupt salt file: regenerating would orphan existing
		// ciphertext, so fail loudly instead.
		return nil, fmt.Errorf("corrupt salt file %s: %v", path, decErr)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading salt file: %w", err)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(salt)), 0600); err != nil {
		return nil, fmt.Errorf("writing salt file: %w", err)
	}
	return salt, nil
}

// PromptPassphrase reads a passphrase from the terminal without echo.
func PromptPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}

// DefaultKeyProvider returns the key provider for the current
// environment. Priority: MEETWISE_ENCRYPTION_KEY, then the system
// keyring, then a passphrase prompt backed by a salt persisted in
// dataDir.
func DefaultKeyProvider(dataDir string) (KeyProvider, error) {
	if os.Getenv(EnvKeyVar) != "" {
		return NewEnvKeyProvider(EnvKeyVar), nil
	}

	provider := NewKeyringKeyProvider()
	if _, err := provider.GetKey(); err == nil {
		return provider, nil
	} else if !errors.Is(err, ErrKeyringUnavailable) {
		return nil, err
	}

	salt, err := LoadOrCreateSalt(dataDir)
	if err != nil {
		return nil, err
	}
	pass, err := PromptPassphrase("Store passphrase: ")
	if err != nil {
		return nil, err
	}
	return NewPassphraseKeyProvider(pass, salt), nil
}

package credentials

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKeyProvider(t *testing.T) {
	key := make([]byte, KeyLength)
	for i := range key {
		key[i] = byte(i)
	}
	t.Setenv("TEST_MEETWISE_KEY", hex.EncodeToString(key))

	p := NewEnvKeyProvider("TEST_MEETWISE_KEY")
	got, err := p.GetKey()
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestEnvKeyProvider_Missing(t *testing.T) {
	p := NewEnvKeyProvider("TEST_MEETWISE_KEY_UNSET")
	_, err := p.GetKey()
	assert.Error(t, err)
}

func TestEnvKeyProvider_BadLength(t *testing.T) {
	t.Setenv("TEST_MEETWISE_KEY", "abcd")
	p := NewEnvKeyProvider("TEST_MEETWISE_KEY")
	_, err := p.GetKey()
	assert.Error(t, err)
}

func TestPassphraseKeyProvider_Deterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")

	k1, err := NewPassphraseKeyProvider("correct horse", salt).GetKey()
	require.NoError(t, err)
	require.Len(t, k1, KeyLength)

	k2, err := NewPassphraseKeyProvider("correct horse", salt).GetKey()
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := NewPassphraseKeyProvider("wrong phrase", salt).GetKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestPassphraseKeyProvider_RequiresInputs(t *testing.T) {
	_, err := NewPassphraseKeyProvider("", []byte("salt")).GetKey()
	assert.Error(t, err)

	_, err = NewPassphraseKeyProvider("pass", nil).GetKey()
	assert.Error(t, err)
}

func TestLoadOrCreateSalt_Roundtrip(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadOrCreateSalt(dir)
	require.NoError(t, err)
	require.Len(t, first, 16)

	second, err := LoadOrCreateSalt(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadOrCreateSalt_CorruptFileFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SaltFileName), []byte("not-hex!"), 0600))

	_, err := LoadOrCreateSalt(dir)
	assert.Error(t, err)
}

func TestStaticKeyProvider_LengthCheck(t *testing.T) {
	_, err := (&StaticKeyProvider{Key: []byte("short")}).GetKey()
	assert.Error(t, err)
}

package keybackend_test

import (
	"path/filepath"
	"testing"

	"github.com/sagarc03/filebox"
	"github.com/sagarc03/filebox/keybackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecretStore_InlineOnly(t *testing.T) {
	t.Parallel()

	store, err := keybackend.NewSecretStore(keybackend.KeysConfig{Inline: "inline-key"})
	require.NoError(t, err)

	assert.NoError(t, store.Verify("inline-key"))
	assert.ErrorIs(t, store.Verify("other"), filebox.ErrUnauthorized)
}

func TestNewSecretStore_FileOnly(t *testing.T) {
	t.Parallel()

	store, err := keybackend.NewSecretStore(keybackend.KeysConfig{File: writeTestFile(t, "file-key\n")})
	require.NoError(t, err)

	assert.NoError(t, store.Verify("file-key"))
}

func TestNewSecretStore_FileOverridesInline(t *testing.T) {
	t.Parallel()

	store, err := keybackend.NewSecretStore(keybackend.KeysConfig{
		Inline: "inline-loses",
		File:   writeTestFile(t, "file-wins"),
	})
	require.NoError(t, err)

	assert.NoError(t, store.Verify("file-wins"))
	assert.ErrorIs(t, store.Verify("inline-loses"), filebox.ErrUnauthorized)
}

func TestNewSecretStore_EmptyConfig(t *testing.T) {
	t.Parallel()

	_, err := keybackend.NewSecretStore(keybackend.KeysConfig{})
	assert.ErrorIs(t, err, keybackend.ErrNoKey)
}

func TestNewSecretStore_UnreadableFile(t *testing.T) {
	t.Parallel()

	_, err := keybackend.NewSecretStore(keybackend.KeysConfig{
		Inline: "fallback",
		File:   filepath.Join(t.TempDir(), "missing"),
	})
	assert.Error(t, err, "a configured file that cannot be read must not fall back to inline")
}

func TestStaticKey_Verify(t *testing.T) {
	t.Parallel()

	key, err := keybackend.NewStaticKey("correct horse")
	require.NoError(t, err)

	tests := []struct {
		name      string
		presented string
		ok        bool
	}{
		{name: "exact match", presented: "correct horse", ok: true},
		{name: "empty", presented: "", ok: false},
		{name: "prefix", presented: "correct", ok: false},
		{name: "longer", presented: "correct horse battery", ok: false},
		{name: "case differs", presented: "Correct horse", ok: false},
		{name: "trailing space", presented: "correct horse ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := key.Verify(tt.presented)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, filebox.ErrUnauthorized)
			}
		})
	}
}

func TestNewStaticKey_Empty(t *testing.T) {
	t.Parallel()

	_, err := keybackend.NewStaticKey("")
	assert.ErrorIs(t, err, keybackend.ErrNoKey)
}

package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	pepper, err := LoadOrCreatePepper(filepath.Join(t.TempDir(), "pepper"))
	require.NoError(t, err)
	return NewPasswordHasher(pepper)
}

func TestHash(t *testing.T) {
	h := newTestHasher(t)

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"unicode password", "senhaçãoé123"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.Equal(t, "argon2id", parts[1])
			require.Equal(t, "v=19", parts[2])
			require.Equal(t, "m=19456,t=2,p=1", parts[3])
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")

			require.True(t, h.Verify(tt.password, hash))
		})
	}
}

func TestHash_UniqueSalts(t *testing.T) {
	h := newTestHasher(t)

	hash1, err := h.Hash("Secret123")
	require.NoError(t, err)
	hash2, err := h.Hash("Secret123")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
	require.True(t, h.Verify("Secret123", hash1))
	require.True(t, h.Verify("Secret123", hash2))
}

func TestVerify_WrongPassword(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("correct-password1")
	require.NoError(t, err)

	for _, wrong := range []string{
		"wrong-password1",
		"Correct-Password1",
		"correct-password1 ",
		"",
		"correct-password",
		strings.Repeat("x", 10000),
	} {
		require.False(t, h.Verify(wrong, hash), "%q should not verify", wrong)
	}
}

func TestVerify_PepperMatters(t *testing.T) {
	a := NewPasswordHasher("pepper-a")
	b := NewPasswordHasher("pepper-b")

	hash, err := a.Hash("Secret123")
	require.NoError(t, err)

	require.True(t, a.Verify("Secret123", hash))
	require.False(t, b.Verify("Secret123", hash))
}

func TestVerify_InvalidHashFormat(t *testing.T) {
	h := newTestHasher(t)

	for name, invalid := range map[string]string{
		"empty hash":           "",
		"wrong algorithm":      "$scrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"missing parts":        "$argon2id$v=19$m=19456",
		"malformed parameters": "$argon2id$v=19$invalid$c2FsdA$aGFzaA",
		"invalid base64 salt":  "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA",
		"invalid base64 hash":  "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!",
		"wrong version":        "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"empty digest":         "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$",
	} {
		t.Run(name, func(t *testing.T) {
			require.False(t, h.Verify("test-password", invalid))
		})
	}
}

func TestVerify_LegacyBcrypt(t *testing.T) {
	h := newTestHasher(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	require.True(t, h.Verify("Secret123", string(legacy)))
	require.False(t, h.Verify("Secret124", string(legacy)))
	require.True(t, h.NeedsRehash(string(legacy)))
}

func TestNeedsRehash(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("Secret123")
	require.NoError(t, err)
	require.False(t, h.NeedsRehash(hash))

	weaker := strings.Replace(hash, "t=2", "t=1", 1)
	require.True(t, h.NeedsRehash(weaker))
}

func TestLoadOrCreatePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	first, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Len(t, first, 43)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second, "pepper should be stable across loads")

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))
	_, err = LoadOrCreatePepper(path)
	require.Error(t, err)
}

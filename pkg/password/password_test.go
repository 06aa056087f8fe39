package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ideafly/authkit/pkg/password"
)

func TestHasherHash(t *testing.T) {
	t.Parallel()

	// MinCost keeps the suite fast; cost choice does not affect semantics.
	hasher := password.New(password.WithCost(bcrypt.MinCost))

	t.Run("hashes valid password", func(t *testing.T) {
		t.Parallel()

		hash, err := hasher.Hash("abcdefg1")
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotContains(t, string(hash), "abcdefg1")
	})

	t.Run("rejects empty password", func(t *testing.T) {
		t.Parallel()

		_, err := hasher.Hash("")
		assert.ErrorIs(t, err, password.ErrEmptyPassword)
	})

	t.Run("rejects too short password", func(t *testing.T) {
		t.Parallel()

		_, err := hasher.Hash("short1")
		assert.ErrorIs(t, err, password.ErrPasswordLength)
	})

	t.Run("rejects too long password", func(t *testing.T) {
		t.Parallel()

		_, err := hasher.Hash(strings.Repeat("a", 129))
		assert.ErrorIs(t, err, password.ErrPasswordLength)
	})

	t.Run("same password yields different hashes", func(t *testing.T) {
		t.Parallel()

		first, err := hasher.Hash("abcdefg1")
		require.NoError(t, err)
		second, err := hasher.Hash("abcdefg1")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestHasherVerify(t *testing.T) {
	t.Parallel()

	hasher := password.New(password.WithCost(bcrypt.MinCost))
	hash, err := hasher.Hash("abcdefg1")
	require.NoError(t, err)

	t.Run("accepts matching password", func(t *testing.T) {
		t.Parallel()
		assert.True(t, hasher.Verify("abcdefg1", hash))
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		t.Parallel()
		assert.False(t, hasher.Verify("abcdefg2", hash))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		t.Parallel()
		assert.False(t, hasher.Verify("", hash))
	})

	t.Run("malformed hash is a mismatch, not an error", func(t *testing.T) {
		t.Parallel()
		assert.False(t, hasher.Verify("abcdefg1", []byte("not-a-bcrypt-hash")))
	})

	t.Run("nil hash is a mismatch", func(t *testing.T) {
		t.Parallel()
		assert.False(t, hasher.Verify("abcdefg1", nil))
	})
}

func TestHasherNeedsRehash(t *testing.T) {
	t.Parallel()

	weak := password.New(password.WithCost(bcrypt.MinCost))
	strong := password.New(password.WithCost(bcrypt.MinCost + 2))

	hash, err := weak.Hash("abcdefg1")
	require.NoError(t, err)

	t.Run("low cost hash needs rehash under stricter policy", func(t *testing.T) {
		t.Parallel()
		assert.True(t, strong.NeedsRehash(hash))
	})

	t.Run("hash at current cost does not need rehash", func(t *testing.T) {
		t.Parallel()
		assert.False(t, weak.NeedsRehash(hash))
	})

	t.Run("undecodable hash needs rehash", func(t *testing.T) {
		t.Parallel()
		assert.True(t, weak.NeedsRehash([]byte("garbage")))
	})

	t.Run("empty hash does not need rehash", func(t *testing.T) {
		t.Parallel()
		assert.False(t, weak.NeedsRehash(nil))
	})
}

func TestWithCostBounds(t *testing.T) {
	t.Parallel()

	// Out-of-range costs fall back to the default rather than panicking
	// deep inside bcrypt at hash time.
	hasher := password.New(password.WithCost(99))
	hash, err := hasher.Hash("abcdefg1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost(hash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

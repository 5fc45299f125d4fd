package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-platform/pkg/errors"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "GEMINI_API_KEY", "k1"))
	v, err := s.Get(ctx, "GEMINI_API_KEY")
	require.NoError(t, err)
	require.Equal(t, "k1", v)

	_, err = s.Get(ctx, "QWEN_API_KEY")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestEnvStore_Get(t *testing.T) {
	t.Setenv("CHAT_TEST_SECRET", "v")
	s := NewEnvStore()
	v, err := s.Get(context.Background(), "CHAT_TEST_SECRET")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	_, err = s.Get(context.Background(), "CHAT_TEST_SECRET_MISSING")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestResolveModelKey_StoreFirstThenEnv(t *testing.T) {
	ctx := context.Background()
	t.Setenv("MODEL_KEY", "from-env")

	s := NewMemoryStore()
	require.Equal(t, "from-env", ResolveModelKey(ctx, s, "MODEL_KEY"))

	require.NoError(t, s.Set(ctx, "MODEL_KEY", "from-store"))
	require.Equal(t, "from-store", ResolveModelKey(ctx, s, "MODEL_KEY"))
}

func TestNewStore_DefaultsToEnv(t *testing.T) {
	t.Setenv("DEFAULT_PROVIDER_KEY", "e")
	s, err := NewStore(Config{})
	require.NoError(t, err)
	v, err := s.Get(context.Background(), "DEFAULT_PROVIDER_KEY")
	require.NoError(t, err)
	require.Equal(t, "e", v)
}

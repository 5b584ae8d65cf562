package jwt_test

import (
	"testing"
	"time"

	"github.com/taskex-lab/backend/pkg/jwt"
	"github.com/stretchr/testify/require"
)

func TestEngine(t *testing.T) {
	engine := jwt.NewEngine[string]("secret", time.Minute)
	token, err := engine.Generate("user", "abc")
	require.NoError(t, err)

	obj, err := engine.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "abc", obj)

	other := jwt.NewEngine[string]("another-secret", time.Minute)
	_, err = other.Verify(token)
	require.Error(t, err)
}

func TestEngineExpired(t *testing.T) {
	engine := jwt.NewEngine[string]("secret", -time.Minute)
	token, err := engine.Generate("user", "abc")
	require.NoError(t, err)

	_, err = engine.Verify(token)
	require.Error(t, err)
}

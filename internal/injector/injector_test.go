package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/cabinet/internal/config"
)

func TestInitializeSession(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "silent"

	s := InitializeSession(cfg)
	require.NotNil(t, s)
	assert.NotEqual(t, [16]byte{}, [16]byte(s.ID()))

	c, err := s.NewCabinet("scratch.assets")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	require.NoError(t, s.Close())
}

package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bingo.log")
	log, err := New("info", path)
	require.NoError(t, err)
	log.Debugf("hidden %d", 1)
	log.Infof("drew %s", "B-7")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"drew B-7"`)
	assert.Contains(t, string(b), `"level":"INFO"`)
	assert.NotContains(t, string(b), "hidden")
}

func TestSetupRejectsLevel(t *testing.T) {
	before := Log
	assert.Error(t, Setup("loud", ""))
	assert.Same(t, before, Log)
}

package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	saved := version
	version = v
	t.Cleanup(func() { version = saved })
}

func TestVersionCmd(t *testing.T) {
	resetFlags()
	withVersion(t, "1.4.0")

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vpm 1.4.0 ("+runtime.Version())
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionCmd_Short(t *testing.T) {
	resetFlags()
	defer resetFlags()
	withVersion(t, "dev")

	out, err := execute(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	_, err := execute(t, "", "version", "extra")
	assert.Error(t, err)
}

package cli

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogs_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tool.log")
	closer := SetupLogs(false, LogOptions{File: path, MaxSize: 1, MaxBackups: 1, MaxAge: 1})
	defer SetupLogs(false, LogOptions{})

	log.Printf("[INFO] hello file")
	log.Printf("[DEBUG] hidden without dbg")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
	assert.NotContains(t, string(data), "hidden without dbg")
}

func TestSetupLogs_Debug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tool.log")
	closer := SetupLogs(true, LogOptions{File: path})
	defer SetupLogs(false, LogOptions{})

	log.Printf("[DEBUG] visible with dbg")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible with dbg")
}

func TestSetupLogs_Stdout(t *testing.T) {
	closer := SetupLogs(false, LogOptions{})
	assert.NoError(t, closer.Close())
}

func TestBuildInfo_String(t *testing.T) {
	b := BuildInfo{App: "contours", Version: "v1.2.3", BuildTime: "2025-06-01", GitCommit: "abc123"}
	assert.Equal(t, "contours v1.2.3\n  Build time: 2025-06-01\n  Git commit: abc123", b.String())
}

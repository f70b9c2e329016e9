package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Stalls_R2-preview_stylized_1700000000.jpg", "stalls_r10_x.JPG", "stalls_w3.jpg",
		"stalls_r3_again.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	var out bytes.Buffer
	require.NoError(t, run(options{Dir: dir}, &out))

	assert.FileExists(t, filepath.Join(dir, "stalls_w2.jpg"))
	assert.FileExists(t, filepath.Join(dir, "stalls_w10.jpg"))
	assert.FileExists(t, filepath.Join(dir, "stalls_r3_again.jpg"), "collision leaves the source alone")
	assert.Contains(t, out.String(), "Warning: stalls_w3.jpg: ")
	assert.Contains(t, out.String(), "Renamed: Stalls_R2-preview_stylized_1700000000.jpg → stalls_w2.jpg")
	assert.Contains(t, out.String(), "\nRenamed 2 files in "+dir+"\n")
}

func TestRun_DryRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stalls_r1.jpg"), []byte("x"), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(options{Dir: dir, DryRun: true}, &out))
	assert.FileExists(t, filepath.Join(dir, "stalls_r1.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "stalls_w1.jpg"))
	assert.Contains(t, out.String(), "Would rename: stalls_r1.jpg → stalls_w1.jpg")
	assert.Contains(t, out.String(), "\nWould rename 1 files in "+dir+"\n")
	assert.NotContains(t, out.String(), "Renamed")
}

func TestRun_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output_theatre")
	var out bytes.Buffer
	require.NoError(t, run(options{Dir: dir}, &out))
	assert.Equal(t, "Directory "+dir+" does not exist!\n", out.String())
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/export"
)

func TestConvertFailureReportsOnce(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{
		"convert-model",
		"--source", filepath.Join(t.TempDir(), "missing.onnx"),
		"--output", filepath.Join(t.TempDir(), "out.mlpackage"),
	})

	err = rootCmd.Execute()
	require.ErrorIs(t, err, export.ErrArtifactMissing)

	// Cobra stays quiet; main prints the single Error line itself.
	assert.NotContains(t, errOut.String(), "Usage:")
	assert.NotContains(t, errOut.String(), "Error:")
	assert.NotContains(t, out.String(), "Usage:")
}

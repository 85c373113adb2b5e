package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no stray config file is picked up.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "AndroidOrigin/app/src/main/assets/model.onnx", cfg.Model.Source)
	assert.Equal(t, "BJTUselfServiceApple/BJTUselfServiceApple/CaptchaModel.mlpackage", cfg.Model.Output)
	assert.Equal(t, "AndroidOrigin/app/src/main/res/mipmap-xxxhdpi/ic_launcher.webp", cfg.Icons.Source)
	assert.Equal(t, "BJTUselfServiceApple/BJTUselfServiceApple/Assets.xcassets/AppIcon.appiconset", cfg.Icons.Output)
	assert.Empty(t, cfg.Runtime.LibraryPath)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appleport.yaml")
	content := `
model:
  source: /tmp/custom.onnx
runtime:
  library_path: /opt/onnxruntime/lib/libonnxruntime.so
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.onnx", cfg.Model.Source)
	assert.Equal(t, "/opt/onnxruntime/lib/libonnxruntime.so", cfg.Runtime.LibraryPath)
	// Unset keys keep their defaults.
	assert.Equal(t, "BJTUselfServiceApple/BJTUselfServiceApple/CaptchaModel.mlpackage", cfg.Model.Output)
}

func TestLoadEnvOverrides(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("APPLEPORT_MODEL_SOURCE", "/tmp/env.onnx")
	t.Setenv("APPLEPORT_RUNTIME_LIBRARY_PATH", "/opt/ort/libonnxruntime.so")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.onnx", cfg.Model.Source)
	assert.Equal(t, "/opt/ort/libonnxruntime.so", cfg.Runtime.LibraryPath)
	// Keys without an env var keep their defaults.
	assert.Equal(t, "AndroidOrigin/app/src/main/res/mipmap-xxxhdpi/ic_launcher.webp", cfg.Icons.Source)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

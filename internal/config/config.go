// Package config loads tool configuration with viper. All keys have
// defaults matching the repository layout, so the tools run with no config
// file at all; a file or APPLEPORT_* environment variables override them.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the paths and runtime settings for both pipelines.
type Config struct {
	Model   ModelConfig   `mapstructure:"model"`
	Icons   IconsConfig   `mapstructure:"icons"`
	Runtime RuntimeConfig `mapstructure:"runtime"`
}

type ModelConfig struct {
	// Source is the trained ONNX artifact from the Android build.
	Source string `mapstructure:"source"`
	// Output is the inference package directory inside the Xcode project.
	Output string `mapstructure:"output"`
}

type IconsConfig struct {
	// Source is the highest-resolution Android launcher icon.
	Source string `mapstructure:"source"`
	// Output is the AppIcon asset catalog directory.
	Output string `mapstructure:"output"`
}

type RuntimeConfig struct {
	// LibraryPath overrides the onnxruntime shared library location.
	LibraryPath string `mapstructure:"library_path"`
}

// Load reads configuration from the given file path, or from defaults and
// environment when path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APPLEPORT")
	// Nested keys map as model.source -> APPLEPORT_MODEL_SOURCE.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("appleport")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.source", "AndroidOrigin/app/src/main/assets/model.onnx")
	v.SetDefault("model.output", "BJTUselfServiceApple/BJTUselfServiceApple/CaptchaModel.mlpackage")

	v.SetDefault("icons.source", "AndroidOrigin/app/src/main/res/mipmap-xxxhdpi/ic_launcher.webp")
	v.SetDefault("icons.output", "BJTUselfServiceApple/BJTUselfServiceApple/Assets.xcassets/AppIcon.appiconset")

	v.SetDefault("runtime.library_path", "")
}

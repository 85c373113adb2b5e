package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/export"
	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/tensor"
)

var convertCmd = &cobra.Command{
	Use:   "convert-model",
	Short: "Convert the trained captcha model into an on-device inference package",
	Long: `Converts the ONNX captcha model from the Android build into the
inference package the Apple app loads. The model is validated with a real
forward pass on the captcha input shape before anything is written.`,
	RunE: runConvert,
}

var (
	modelSource string
	modelOutput string
	libraryPath string
)

func init() {
	convertCmd.Flags().StringVar(&modelSource, "source", "", "path to the ONNX model artifact")
	convertCmd.Flags().StringVar(&modelOutput, "output", "", "path of the .mlpackage to write")
	convertCmd.Flags().StringVar(&libraryPath, "library-path", "", "onnxruntime shared library override")
	rootCmd.AddCommand(convertCmd)
}

// captchaDescriptor pins the model interface the app relies on: a 42x130
// RGB captcha image in, 15 character positions over 8 classes out.
func captchaDescriptor() export.Descriptor {
	return export.Descriptor{
		InputName:   "image",
		InputShape:  tensor.Shape{1, 3, 42, 130},
		InputDType:  tensor.Float32,
		OutputName:  "logits",
		OutputShape: tensor.Shape{1, 15, 8},
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source := cfg.Model.Source
	if modelSource != "" {
		source = modelSource
	}
	output := cfg.Model.Output
	if modelOutput != "" {
		output = modelOutput
	}
	library := cfg.Runtime.LibraryPath
	if libraryPath != "" {
		library = libraryPath
	}

	fmt.Printf("Converting captcha model...\n")
	fmt.Printf("  Source: %s\n", source)
	fmt.Printf("  Output: %s\n", output)

	exporter := export.New(
		&export.ONNXRuntime{LibraryPath: library},
		export.Options{
			ModelName:         "CaptchaModel",
			Author:            "BJTU SelfService Team",
			License:           "Same as the Android release",
			Description:       "Captcha recognizer ported from the Android release",
			InputDescription:  "Normalized RGB captcha image, 42x130",
			OutputDescription: "Per-position character logits, 15 positions x 8 classes",
			ComputeUnits:      export.ComputeAll,
		},
	)

	result, err := exporter.Export(source, output, captchaDescriptor())
	if err != nil {
		diagnoseConvert(err, source, output)
		return err
	}

	fmt.Printf("\nValidation passed: output %s %s\n", result.OutputShape, result.OutputDType)
	fmt.Printf("Package written: %s\n", result.PackagePath)
	fmt.Printf("  %d weight tensors, %d bytes, opset %d\n",
		result.TensorCount, result.WeightBytes, result.OpsetVersion)
	return nil
}

// diagnoseConvert prints likely causes and fixes for a failed conversion.
func diagnoseConvert(err error, source, output string) {
	fmt.Fprintln(os.Stderr, "\nConversion failed. Likely causes:")
	switch {
	case errors.Is(err, export.ErrArtifactMissing):
		fmt.Fprintf(os.Stderr, "  - The model artifact is not at %s\n", source)
		fmt.Fprintln(os.Stderr, "  - Run the Android model export first, or pass --source")
	case errors.Is(err, export.ErrInterfaceMismatch):
		fmt.Fprintln(os.Stderr, "  - The artifact's inputs/outputs differ from the captcha interface")
		fmt.Fprintln(os.Stderr, "  - Re-export the model with input \"image\" (1,3,42,130) and output \"logits\"")
	case errors.Is(err, export.ErrUnsupportedOp):
		fmt.Fprintln(os.Stderr, "  - The graph uses an operation the on-device runtime cannot map")
		fmt.Fprintln(os.Stderr, "  - Re-export with a simpler architecture or a lower opset")
	case errors.Is(err, export.ErrBadOutputShape):
		fmt.Fprintln(os.Stderr, "  - The forward pass produced a shape other than 1x15x8")
		fmt.Fprintln(os.Stderr, "  - The artifact is probably from a different training run")
	default:
		fmt.Fprintln(os.Stderr, "  - The onnxruntime shared library may be missing;")
		fmt.Fprintln(os.Stderr, "    install it and set runtime.library_path or --library-path")
		fmt.Fprintf(os.Stderr, "  - The parent directory %s may not exist\n", filepath.Dir(output))
		fmt.Fprintln(os.Stderr, "  - The artifact may be corrupt; re-export it from training")
	}
}

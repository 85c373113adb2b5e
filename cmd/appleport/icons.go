package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/JasonZhang1225/BJTUselfService-AppleDevice/internal/icons"
)

var iconsCmd = &cobra.Command{
	Use:   "generate-icons",
	Short: "Render the full AppIcon set from the Android launcher icon",
	Long: `Resizes the Android launcher icon into every size the AppIcon asset
catalog expects, as PNG with alpha preserved. Entries are independent: a
failed entry is reported and the rest still generate.`,
	RunE: runIcons,
}

var (
	iconsSource string
	iconsOutput string
)

func init() {
	iconsCmd.Flags().StringVar(&iconsSource, "source", "", "path to the launcher icon (WebP, PNG or JPEG)")
	iconsCmd.Flags().StringVar(&iconsOutput, "output", "", "AppIcon.appiconset directory to write into")
	rootCmd.AddCommand(iconsCmd)
}

func runIcons(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source := cfg.Icons.Source
	if iconsSource != "" {
		source = iconsSource
	}
	output := cfg.Icons.Output
	if iconsOutput != "" {
		output = iconsOutput
	}

	sizes := icons.DefaultSizes()
	fmt.Printf("Generating %d app icons...\n", len(sizes))
	fmt.Printf("  Source: %s\n", source)

	bar := progressbar.NewOptions(len(sizes),
		progressbar.OptionSetDescription("Resizing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(50*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
	)

	gen := &icons.Generator{
		SourcePath: source,
		OutputDir:  output,
		Sizes:      sizes,
		OnIcon: func(icons.Entry, error) {
			_ = bar.Add(1)
		},
	}

	summary, err := gen.Run()
	if err != nil {
		return err
	}
	_ = bar.Finish()

	fmt.Printf("\nGenerated %d of %d icons\n", summary.Generated, len(sizes))
	fmt.Printf("Output directory: %s\n", summary.OutputDir)

	if len(summary.Failures) > 0 {
		fmt.Fprintln(os.Stderr, "Failed entries:")
		for _, f := range summary.Failures {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", f.Entry.Filename, f.Err)
		}
		return fmt.Errorf("%d of %d icons failed", len(summary.Failures), len(sizes))
	}
	return nil
}

package icons

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	// WebP decode support for imaging.Open; Android launcher icons ship
	// as WebP.
	_ "golang.org/x/image/webp"
)

// ErrSourceMissing indicates the source image does not exist.
var ErrSourceMissing = errors.New("source icon not found")

// Failure records one table entry that could not be generated.
type Failure struct {
	Entry Entry
	Err   error
}

// Summary reports the outcome of a generation run.
type Summary struct {
	Generated int
	Failures  []Failure
	OutputDir string
}

// Generator resizes one source image into every entry of the size table.
// Entries are independent: a failed entry is recorded in the summary and
// the remaining entries still run.
type Generator struct {
	SourcePath string
	OutputDir  string
	Sizes      []Entry

	// OnIcon, when set, is called after each entry with its outcome.
	OnIcon func(Entry, error)
}

// Run generates the icon set. The source must exist before anything is
// created; the output directory is created with parents as needed. A
// non-nil Summary with failures is not an error at this level.
func (g *Generator) Run() (*Summary, error) {
	if _, err := os.Stat(g.SourcePath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, g.SourcePath)
		}
		return nil, fmt.Errorf("stat %s: %w", g.SourcePath, err)
	}

	src, err := imaging.Open(g.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", g.SourcePath, err)
	}
	// Clone yields NRGBA, so every derived icon carries an alpha channel
	// even when the source mode lacks one.
	rgba := imaging.Clone(src)

	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	sizes := g.Sizes
	if sizes == nil {
		sizes = DefaultSizes()
	}

	summary := &Summary{OutputDir: g.OutputDir}
	for _, entry := range sizes {
		err := g.generate(rgba, entry)
		if err != nil {
			summary.Failures = append(summary.Failures, Failure{Entry: entry, Err: err})
		} else {
			summary.Generated++
		}
		if g.OnIcon != nil {
			g.OnIcon(entry, err)
		}
	}
	return summary, nil
}

func (g *Generator) generate(src *image.NRGBA, entry Entry) error {
	if entry.Width <= 0 || entry.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", entry.Width, entry.Height)
	}

	resized := imaging.Resize(src, entry.Width, entry.Height, imaging.Lanczos)

	out, err := os.Create(filepath.Join(g.OutputDir, entry.Filename))
	if err != nil {
		return err
	}

	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(out, alphaImage{resized}); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", entry.Filename, err)
	}
	return out.Close()
}

// alphaImage hides the opacity of the pixels from the PNG encoder, which
// otherwise drops the alpha channel from fully opaque images. The asset
// catalog expects every icon to carry alpha even when the launcher icon is
// an opaque JPEG or grayscale image.
type alphaImage struct {
	*image.NRGBA
}

func (alphaImage) Opaque() bool { return false }

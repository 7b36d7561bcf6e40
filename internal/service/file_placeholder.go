package service

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"lorewiki-backend/internal/title"
	"lorewiki-backend/pkg/utils"
)

const (
	placeholderSize     = 256
	placeholderFontSize = 128
)

var (
	placeholderBackground = color.RGBA{R: 17, G: 24, B: 39, A: 255}
	placeholderForeground = color.RGBA{R: 229, G: 231, B: 235, A: 255}
)

// EnsurePlaceholder writes a generated stand-in image for a File page
// that has no stored asset yet and returns its URL. The image shows the
// first letter of the file name on a dark square. Generation is
// idempotent: an existing placeholder is reused.
func (s *FileService) EnsurePlaceholder(t title.Title) (string, error) {
	key := utils.GenerateSlug(t.DBKey())
	if key == "" {
		key = "untitled"
	}
	name := "file-placeholder-" + key + ".png"
	path := filepath.Join(s.uploadDir, name)

	if _, err := os.Stat(path); err == nil {
		return uploadsURLPrefix + name, nil
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}

	img, err := drawInitial(resolveInitial(t.Text()))
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.uploadDir, "placeholder-*.png")
	if err != nil {
		return "", err
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return uploadsURLPrefix + name, nil
}

// resolveInitial picks the first letter or digit of the display name,
// falling back to '?' for names with neither.
func resolveInitial(name string) rune {
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
	}
	return '?'
}

func drawInitial(initial rune) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	for y := 0; y < placeholderSize; y++ {
		for x := 0; x < placeholderSize; x++ {
			img.Set(x, y, placeholderBackground)
		}
	}

	parsed, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    placeholderFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	defer face.Close()

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderForeground),
		Face: face,
	}

	text := string(initial)
	bounds, advance := drawer.BoundString(text)
	textHeight := bounds.Max.Y - bounds.Min.Y
	drawer.Dot = fixed.Point26_6{
		X: (fixed.I(placeholderSize) - advance) / 2,
		Y: (fixed.I(placeholderSize)+textHeight)/2 - bounds.Max.Y,
	}
	drawer.DrawString(text)

	return img, nil
}

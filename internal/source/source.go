package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Prober reports the pixel size of a background asset.
type Prober interface {
	Dimensions(path string) (width, height int, err error)
}

// PDFProber measures the first page of a PDF document.
type PDFProber struct{}

func (PDFProber) Dimensions(path string) (int, int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, 0, err
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return 0, 0, fmt.Errorf("%s has no pages", path)
	}
	rect, err := doc.Bound(0)
	if err != nil {
		return 0, 0, err
	}
	return rect.Dx(), rect.Dy(), nil
}

// AutoProber picks a prober from the file extension.
type AutoProber struct {
	Image ImageProber
	PDF   PDFProber
}

func (p AutoProber) Dimensions(path string) (int, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return p.PDF.Dimensions(path)
	}
	return p.Image.Dimensions(path)
}

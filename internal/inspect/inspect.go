// Package inspect validates upload content before it is staged. The import
// workflow itself trusts whatever it receives; this is the presentation-side
// filter that keeps obviously broken files out of the analysis call.
package inspect

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// CheckDeliveryNote verifies that an upload is one of the accepted delivery
// note formats (pdf, png, jpeg) and that its content matches the extension.
func CheckDeliveryNote(name string, content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("%s: file is empty", filepath.Base(name))
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return checkPDF(name, content)
	case ".png":
		if !bytes.HasPrefix(content, pngMagic) {
			return fmt.Errorf("%s: not a png file", filepath.Base(name))
		}
		return nil
	case ".jpg", ".jpeg":
		if !bytes.HasPrefix(content, jpegMagic) {
			return fmt.Errorf("%s: not a jpeg file", filepath.Base(name))
		}
		return nil
	default:
		return fmt.Errorf("%s: unsupported file type (expected pdf, png or jpeg)", filepath.Base(name))
	}
}

func checkPDF(name string, content []byte) error {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return fmt.Errorf("%s: not a readable pdf: %w", filepath.Base(name), err)
	}
	if r.NumPage() == 0 {
		return fmt.Errorf("%s: pdf has no pages", filepath.Base(name))
	}
	return nil
}

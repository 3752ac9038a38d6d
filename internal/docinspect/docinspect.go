// Package docinspect examines local files before upload: MIME sniffing and
// PDF metadata extraction.
package docinspect

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"
)

// Info describes a local file about to be uploaded.
type Info struct {
	Name      string
	Size      int64
	MIME      string
	PageCount int // PDFs only
}

// Inspect stats and sniffs the file at path. PDF page counts are
// best-effort: a file that sniffs as PDF but fails to parse keeps
// PageCount 0.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("stating %s: %w", path, err)
	}

	mime, err := Sniff(f)
	if err != nil {
		return Info{}, fmt.Errorf("sniffing %s: %w", path, err)
	}

	info := Info{
		Name: filepath.Base(path),
		Size: st.Size(),
		MIME: mime,
	}
	if mime == "application/pdf" {
		n, err := PDFPageCount(path)
		if err != nil {
			slog.Warn("unreadable pdf", "path", path, "error", err)
		} else {
			info.PageCount = n
		}
	}
	return info, nil
}

// Sniff reads up to 512 bytes from r and reports the detected MIME type.
// The reader is rewound afterwards.
func Sniff(r io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// PDFPageCount returns the number of pages in the PDF at path.
func PDFPageCount(path string) (n int, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parsing pdf: %v", rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}

// PDFText extracts the plain text of the PDF at path.
func PDFText(path string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parsing pdf: %v", rec)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rd); err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return buf.String(), nil
}

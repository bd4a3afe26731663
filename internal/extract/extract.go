package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// UnreadableError reports a document that could not be opened or parsed at
// all. Per-page extraction problems are not reported through it; those pages
// simply contribute no text.
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("unreadable document %s: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() error {
	return e.Err
}

// PDFSource extracts per-page text from PDF documents.
type PDFSource struct{}

func NewPDFSource() *PDFSource {
	return &PDFSource{}
}

// Pages returns the extractable text of every page in document order. A page
// whose extraction fails or yields nothing contributes an empty string.
func (s *PDFSource) Pages(ctx context.Context, path string) ([]string, error) {
	f, r, err := openReader(path)
	if err != nil {
		return nil, &UnreadableError{Path: path, Err: err}
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, pageText(r, i))
	}
	return pages, nil
}

// ExtractText produces the document's full narratable text.
func (s *PDFSource) ExtractText(ctx context.Context, path string) (string, error) {
	pages, err := s.Pages(ctx, path)
	if err != nil {
		return "", err
	}
	return FullText(pages), nil
}

// FullText joins non-empty page texts with a blank-line paragraph separator.
// Pages with only whitespace are dropped, so a skipped page leaves no
// separator artifact behind.
func FullText(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// The pdf parser panics on some malformed documents, so both the open path
// and the per-page path run under recover.
func openReader(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if f != nil {
				f.Close()
				f = nil
			}
			r = nil
			err = fmt.Errorf("parse pdf: %v", rec)
		}
	}()
	f, r, err = pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, nil, err
	}
	return f, r, nil
}

func pageText(r *pdf.Reader, n int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return ""
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}

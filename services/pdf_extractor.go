package services

import (
	"net/url"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor pulls plain text out of stored PDF files using
// ledongthuc/pdf. It is stateless and safe for concurrent use.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractPageRange returns the text of an inclusive, 1-indexed page
// range. Pages are joined with blank lines; fragments within a page are
// joined with single spaces. An inverted range is coerced to a single
// page, a range past the end of the document is clamped, and a start
// page beyond the last page yields an empty string without error. Only
// unreadable files produce an *ExtractionError.
func (e *PDFExtractor) ExtractPageRange(filePath string, from, to int) (string, error) {
	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return "", &ExtractionError{Path: filePath, Err: err}
	}
	defer f.Close()

	from, to, ok := resolvePageRange(from, to, reader.NumPage())
	if !ok {
		return "", nil
	}

	var pages []string
	for i := from; i <= to; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		if text := pageText(page); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// PageCount returns the number of pages in the PDF at filePath.
func (e *PDFExtractor) PageCount(filePath string) (int, error) {
	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return 0, &ExtractionError{Path: filePath, Err: err}
	}
	defer f.Close()
	return reader.NumPage(), nil
}

// resolvePageRange normalizes a requested range against the document
// length. It reports false when the range starts past the last page.
func resolvePageRange(from, to, numPages int) (int, int, bool) {
	if from < 1 {
		from = 1
	}
	if to < from {
		to = from
	}
	if from > numPages {
		return 0, 0, false
	}
	if to > numPages {
		to = numPages
	}
	return from, to, true
}

// pageText extracts the text of a single page, row by row. Scanned or
// malformed pages that panic inside the parser are skipped rather than
// failing the whole range.
func pageText(page pdf.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}

	var fragments []string
	for _, row := range rows {
		for _, word := range row.Content {
			s := decodePercentRuns(strings.TrimSpace(word.S))
			if s != "" {
				fragments = append(fragments, s)
			}
		}
	}
	return strings.Join(fragments, " ")
}

// decodePercentRuns undoes percent-encoding some PDF producers leave in
// text runs. Strings that do not decode cleanly are returned as-is.
func decodePercentRuns(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

package pdfvalidation

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFLimits defines the validation limits for PDF uploads
type PDFLimits struct {
	MaxFileSizeMB int
	MaxPages      int
}

// BookLimits are the limits for uploaded textbooks
var BookLimits = PDFLimits{
	MaxFileSizeMB: 100,
	MaxPages:      2000,
}

// ValidationResult contains the result of PDF validation
type ValidationResult struct {
	Valid     bool
	PageCount int
	FileSize  int64
	Error     string
}

// ValidatePDFBytes checks upload size, the PDF magic header, and that
// the page count is within limits. Rejections are reported in the
// result; only unexpected parse failures return an error string too.
func ValidatePDFBytes(content []byte, limits PDFLimits) *ValidationResult {
	result := &ValidationResult{
		FileSize: int64(len(content)),
	}

	maxSize := int64(limits.MaxFileSizeMB) * 1024 * 1024
	if result.FileSize > maxSize {
		result.Error = fmt.Sprintf("File size exceeds maximum allowed size of %dMB", limits.MaxFileSizeMB)
		return result
	}

	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		result.Error = "Invalid PDF file: missing PDF header"
		return result
	}

	pageCount, err := pageCount(content)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to read PDF: %v", err)
		return result
	}
	result.PageCount = pageCount

	if pageCount == 0 {
		result.Error = "PDF has no pages"
		return result
	}
	if pageCount > limits.MaxPages {
		result.Error = fmt.Sprintf("PDF has %d pages, which exceeds the maximum of %d pages", pageCount, limits.MaxPages)
		return result
	}

	result.Valid = true
	return result
}

// pageCount parses the PDF in memory and returns its page count
func pageCount(content []byte) (int, error) {
	content = trimTrailingGarbage(content)
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse PDF: %w", err)
	}
	return reader.NumPage(), nil
}

// trimTrailingGarbage drops bytes after the final %%EOF marker. Some
// producers append junk that trips up the parser's xref lookup.
func trimTrailingGarbage(content []byte) []byte {
	lastEOF := bytes.LastIndex(content, []byte("%%EOF"))
	if lastEOF == -1 {
		return content
	}

	end := lastEOF + len("%%EOF")
	for end < len(content) && (content[end] == '\n' || content[end] == '\r') {
		end++
	}
	if end < len(content) {
		return content[:end]
	}
	return content
}

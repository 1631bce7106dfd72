package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePageRange(t *testing.T) {
	tests := []struct {
		name             string
		from, to, pages  int
		wantFrom, wantTo int
		wantOK           bool
	}{
		{"normal range", 2, 5, 10, 2, 5, true},
		{"inverted range collapses to start", 5, 2, 10, 5, 5, true},
		{"end clamped to last page", 8, 20, 10, 8, 10, true},
		{"start past last page", 11, 15, 10, 0, 0, false},
		{"zero start coerced to first page", 0, 3, 10, 1, 3, true},
		{"single page", 4, 4, 10, 4, 4, true},
		{"start equals last page", 10, 10, 10, 10, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, ok := resolvePageRange(tt.from, tt.to, tt.pages)
			if ok != tt.wantOK {
				t.Fatalf("resolvePageRange(%d, %d, %d) ok = %v, want %v", tt.from, tt.to, tt.pages, ok, tt.wantOK)
			}
			if ok && (from != tt.wantFrom || to != tt.wantTo) {
				t.Errorf("resolvePageRange(%d, %d, %d) = %d-%d, want %d-%d", tt.from, tt.to, tt.pages, from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestDecodePercentRuns(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"hello%20world", "hello world"},
		{"100%", "100%"},           // invalid escape stays untouched
		{"%zz broken", "%zz broken"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := decodePercentRuns(tt.in); got != tt.want {
			t.Errorf("decodePercentRuns(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractPageRangeUnreadableFile(t *testing.T) {
	extractor := NewPDFExtractor()

	_, err := extractor.ExtractPageRange(filepath.Join(t.TempDir(), "missing.pdf"), 1, 3)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
	}
}

func TestExtractPageRangeCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 but nothing else"), 0o644); err != nil {
		t.Fatal(err)
	}

	extractor := NewPDFExtractor()
	_, err := extractor.ExtractPageRange(path, 1, 1)
	if err == nil {
		t.Fatal("expected an error for a corrupt file")
	}
	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
	}
	if extractErr.Path != path {
		t.Errorf("error reports path %q, want %q", extractErr.Path, path)
	}
}

func TestPageCountUnreadableFile(t *testing.T) {
	extractor := NewPDFExtractor()
	if _, err := extractor.PageCount("does-not-exist.pdf"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

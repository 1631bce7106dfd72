package book

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/TiltedFt/ai-learning-flashcards/model"
	"github.com/TiltedFt/ai-learning-flashcards/services"
	"github.com/TiltedFt/ai-learning-flashcards/utils/middleware"
	"github.com/TiltedFt/ai-learning-flashcards/utils/pdfvalidation"
	"github.com/TiltedFt/ai-learning-flashcards/utils/response"
)

// BookHandler handles book upload and management requests
type BookHandler struct {
	books *services.BookService
}

func NewBookHandler(books *services.BookService) *BookHandler {
	return &BookHandler{books: books}
}

// Upload handles a multipart PDF upload. The form carries the file
// under "file" plus "title" and optional "author" fields.
func (h *BookHandler) Upload(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return response.BadRequest(c, "Title is required")
	}
	author := strings.TrimSpace(c.FormValue("author"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "PDF file is required")
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return response.BadRequest(c, "Only PDF files are supported")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read upload")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return response.InternalServerError(c, "Failed to read upload")
	}

	result := pdfvalidation.ValidatePDFBytes(content, pdfvalidation.BookLimits)
	if !result.Valid {
		return response.BadRequest(c, result.Error)
	}

	created, err := h.books.SaveUpload(c.Context(), userID, title, author, content)
	if err != nil {
		var extractErr *services.ExtractionError
		if errors.As(err, &extractErr) {
			return response.BadRequest(c, "Uploaded file could not be parsed as a PDF")
		}
		return response.InternalServerError(c, "Failed to store book")
	}

	return response.Created(c, created.ToResponse())
}

// List returns the authenticated user's books
func (h *BookHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	books, err := h.books.ListBooks(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list books")
	}

	out := make([]*model.BookResponse, 0, len(books))
	for i := range books {
		out = append(out, books[i].ToResponse())
	}
	return response.Success(c, out)
}

// Get returns one book by id
func (h *BookHandler) Get(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	book, err := h.books.GetBook(c.Context(), userID, c.Params("book_id"))
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to load book")
	}
	return response.Success(c, book.ToResponse())
}

// Delete removes a book and its stored file
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	err := h.books.DeleteBook(c.Context(), userID, c.Params("book_id"))
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to delete book")
	}
	return response.NoContent(c)
}

// internal/handlers/documents.go
package handlers

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kmrl/metrodocs/internal/models"
	"github.com/kmrl/metrodocs/internal/services"
	"github.com/kmrl/metrodocs/internal/utils"
)

const msgUploadTooLarge = "File is too large."

type DocumentHandler struct {
	documentService *services.DocumentService
	maxUploadBytes  int64
}

type formField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required"`
}

var uploadForm = []formField{
	{Name: "file", Type: "file", Label: "Select File", Required: true},
	{Name: "department", Type: "text", Label: "Department", Placeholder: "e.g. HR, Procurement", Required: true},
	{Name: "category", Type: "text", Label: "Category", Placeholder: "e.g. Invoice, Report", Required: true},
}

func NewDocumentHandler(documentService *services.DocumentService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxUploadBytes:  maxUploadBytes,
	}
}

// GET /
func (h *DocumentHandler) List(c *gin.Context) {
	documents, err := h.documentService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	if documents == nil {
		documents = []models.Document{}
	}

	utils.SuccessResponse(c, gin.H{
		"documents": documents,
		"messages":  popFlashes(c),
	})
}

// GET /upload
func (h *DocumentHandler) UploadForm(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"method":             http.MethodPost,
		"enctype":            "multipart/form-data",
		"fields":             uploadForm,
		"allowed_extensions": models.AllowedDocumentExtensions,
		"messages":           popFlashes(c),
	})
}

// POST /upload
func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile("file")
	req := &services.UploadRequest{
		Department: c.PostForm("department"),
		Category:   c.PostForm("category"),
	}

	switch {
	case err == nil:
		var file multipart.File
		file, err = header.Open()
		if err != nil {
			respondError(c, services.InternalError("Unable to read the upload.", err))
			return
		}
		defer file.Close()
		req.Filename = uploadFilename(header)
		req.Body = file
	case isTooLarge(err):
		h.redirectWithFlash(c, "/upload", msgUploadTooLarge)
		return
	}

	if _, err := h.documentService.Upload(c.Request.Context(), req); err != nil {
		if services.KindOf(err) == services.KindValidation {
			var serviceErr *services.ServiceError
			errors.As(err, &serviceErr)
			h.redirectWithFlash(c, "/upload", serviceErr.Message)
			return
		}
		respondError(c, err)
		return
	}

	h.redirectWithFlash(c, "/", services.MsgDocumentUploaded)
}

// GET /download/:id
func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	document, body, size, err := h.documentService.Open(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(filepath.Ext(document.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, size, contentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, document.Filename),
	})
}

// GET /delete/:id
//
// Deletion stays on GET so existing links keep working. It is not protected
// against cross-site requests.
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	if _, err := h.documentService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	h.redirectWithFlash(c, "/", services.MsgDocumentDeleted)
}

func (h *DocumentHandler) redirectWithFlash(c *gin.Context, location, message string) {
	session := sessions.Default(c)
	session.AddFlash(message)
	if err := session.Save(); err != nil {
		logrus.WithError(err).Warn("Failed to store flash message")
	}
	c.Redirect(http.StatusFound, location)
}

// popFlashes returns and clears the pending flash messages.
func popFlashes(c *gin.Context) []string {
	session := sessions.Default(c)
	flashes := session.Flashes()
	messages := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if msg, ok := f.(string); ok {
			messages = append(messages, msg)
		}
	}
	if len(flashes) > 0 {
		if err := session.Save(); err != nil {
			logrus.WithError(err).Warn("Failed to clear flash messages")
		}
	}
	return messages
}

// documentID parses the :id path parameter, answering 404 when it is not a
// positive integer.
func documentID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.NotFoundResponse(c, "Document not found.")
		return 0, false
	}
	return uint(id), true
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// multipart parsing does not always wrap the reader error
	return err != nil && strings.Contains(err.Error(), "request body too large")
}

// uploadFilename returns the client supplied name with any directory parts
// intact. multipart strips them from FileHeader.Filename, but they must reach
// the sanitizer.
func uploadFilename(header *multipart.FileHeader) string {
	_, params, err := mime.ParseMediaType(header.Header.Get("Content-Disposition"))
	if err != nil || params["filename"] == "" {
		return header.Filename
	}
	return params["filename"]
}

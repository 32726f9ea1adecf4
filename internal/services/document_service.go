// internal/services/document_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kmrl/metrodocs/internal/models"
	"github.com/kmrl/metrodocs/internal/utils"
)

const (
	MsgNoFileSelected     = "No file selected"
	MsgInvalidFileType    = "Invalid file type. Allowed: pdf, doc, docx, jpg, png"
	MsgDocumentFields     = "Department and category are required."
	MsgInvalidFilename    = "Invalid file name."
	MsgDocumentUploaded   = "File uploaded successfully!"
	MsgDocumentDeleted    = "File deleted successfully!"
	msgDocumentNotFound   = "Document not found."
	msgStoredFileNotFound = "File not found."
)

// FileOutcome says what happened to the stored bytes of a deleted document.
type FileOutcome string

const (
	FileRemoved FileOutcome = "removed"
	FileMissing FileOutcome = "missing"
	FileFailed  FileOutcome = "failed"
)

type DocumentService struct {
	db      *gorm.DB
	storage DocumentStorage
}

type UploadRequest struct {
	Filename   string
	Body       io.Reader
	Department string
	Category   string
}

// DeleteResult reports a delete. The row is always gone; File tells whether
// the bytes went with it.
type DeleteResult struct {
	Document *models.Document
	File     FileOutcome
	FileErr  error
}

func NewDocumentService(db *gorm.DB, storage DocumentStorage) *DocumentService {
	return &DocumentService{db: db, storage: storage}
}

// List returns every document, newest upload first.
func (s *DocumentService) List() ([]models.Document, error) {
	var documents []models.Document
	if err := s.db.Order("upload_date DESC").Order("id DESC").Find(&documents).Error; err != nil {
		return nil, InternalError("Unable to list documents.", err)
	}
	return documents, nil
}

func (s *DocumentService) Upload(ctx context.Context, req *UploadRequest) (*models.Document, error) {
	if req.Body == nil || req.Filename == "" {
		return nil, ValidationError(MsgNoFileSelected)
	}
	if !utils.HasAllowedExtension(req.Filename, models.AllowedDocumentExtensions) {
		return nil, ValidationError(MsgInvalidFileType)
	}

	department := strings.TrimSpace(req.Department)
	category := strings.TrimSpace(req.Category)
	if department == "" || category == "" {
		return nil, ValidationError(MsgDocumentFields)
	}

	filename := utils.SecureFilename(req.Filename)
	if filename == "" {
		return nil, ValidationError(MsgInvalidFilename)
	}

	if err := s.storage.Save(ctx, filename, req.Body); err != nil {
		return nil, InternalError("Unable to store the file.", err)
	}

	document := &models.Document{
		Filename:   filename,
		Department: department,
		Category:   category,
	}
	if err := s.db.Create(document).Error; err != nil {
		// Bytes without a row are unreachable; drop them.
		if rmErr := s.storage.Remove(ctx, filename); rmErr != nil && !errors.Is(rmErr, ErrFileNotFound) {
			logrus.WithError(rmErr).WithField("filename", filename).Warn("Failed to clean up orphaned upload")
		}
		return nil, InternalError("Unable to save the document.", err)
	}

	logrus.WithFields(logrus.Fields{
		"document_id": document.ID,
		"filename":    filename,
		"department":  department,
	}).Info("Document uploaded")
	return document, nil
}

func (s *DocumentService) Get(id uint) (*models.Document, error) {
	var document models.Document
	if err := s.db.First(&document, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError(msgDocumentNotFound)
		}
		return nil, InternalError("Unable to load the document.", err)
	}
	return &document, nil
}

// Open returns the document row with a reader over its bytes. The caller
// closes the reader.
func (s *DocumentService) Open(ctx context.Context, id uint) (*models.Document, io.ReadCloser, int64, error) {
	document, err := s.Get(id)
	if err != nil {
		return nil, nil, 0, err
	}

	body, size, err := s.storage.Open(ctx, document.Filename)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil, nil, 0, NotFoundError(msgStoredFileNotFound)
		}
		return nil, nil, 0, InternalError("Unable to read the file.", err)
	}
	return document, body, size, nil
}

// Delete removes the row even when the stored file cannot be removed.
func (s *DocumentService) Delete(ctx context.Context, id uint) (*DeleteResult, error) {
	document, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{Document: document, File: FileRemoved}
	if err := s.storage.Remove(ctx, document.Filename); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			result.File = FileMissing
		} else {
			result.File = FileFailed
			result.FileErr = err
			logrus.WithError(err).WithField("filename", document.Filename).Warn("Failed to remove stored file")
		}
	}

	if err := s.db.Delete(document).Error; err != nil {
		return nil, InternalError(fmt.Sprintf("Unable to delete document %d.", id), err)
	}

	logrus.WithFields(logrus.Fields{
		"document_id": id,
		"file":        result.File,
	}).Info("Document deleted")
	return result, nil
}

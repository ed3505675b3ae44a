package services

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"passport-portal/internal/adapters/persistence/models"
	"passport-portal/internal/adapters/persistence/repositories"
	"passport-portal/internal/core/domain"
	"passport-portal/internal/pkg/metrics"

	"github.com/google/uuid"
)

// Document errors
var (
	ErrEmptyFile           = errors.New("file is empty")
	ErrFileTooLarge        = errors.New("file is too large")
	ErrUnsupportedFileType = errors.New("only JPEG, PNG and PDF files are accepted")
)

var allowedContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// DocumentInput is one uploaded file
type DocumentInput struct {
	RenewalID    string
	DocumentType string
	FileName     string
	Content      io.Reader
}

// DocumentService stores renewal documents on disk
type DocumentService struct {
	renewals  *RenewalService
	repo      repositories.RenewalRepository
	dir       string
	publicURL string
	maxSize   int64
	metrics   *metrics.Metrics
}

// NewDocumentService creates a new document service
func NewDocumentService(
	renewals *RenewalService,
	repo repositories.RenewalRepository,
	dir, publicURL string,
	maxSize int64,
	m *metrics.Metrics,
) *DocumentService {
	return &DocumentService{
		renewals:  renewals,
		repo:      repo,
		dir:       dir,
		publicURL: strings.TrimRight(publicURL, "/"),
		maxSize:   maxSize,
		metrics:   m,
	}
}

// Store saves the file and records it against the renewal, replacing any
// earlier document of the same type. It returns the document's public URL.
func (s *DocumentService) Store(ctx context.Context, viewer Viewer, in DocumentInput) (*models.RenewalDocument, error) {
	docType, err := domain.ParseDocumentType(in.DocumentType)
	if err != nil {
		return nil, &domain.ValidationError{Field: "document_type", Reason: err}
	}

	// Ownership check; admins may attach to any renewal
	if _, err := s.renewals.Get(ctx, viewer, in.RenewalID); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(in.Content, s.maxSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	contentType := http.DetectContentType(data)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedFileType
	}

	dir := filepath.Join(s.dir, in.RenewalID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	name := string(docType) + "-" + uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o640); err != nil {
		return nil, err
	}

	doc := &models.RenewalDocument{
		RenewalID:    in.RenewalID,
		DocumentType: string(docType),
		URL:          s.publicURL + "/uploads/" + in.RenewalID + "/" + name,
		FileName:     filepath.Base(in.FileName),
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		UploadedBy:   viewer.UserID,
	}
	history := &models.RenewalHistory{
		RenewalID:   in.RenewalID,
		Action:      models.ActionDocUpload,
		Description: "uploaded " + string(docType),
		PerformedBy: viewer.UserID,
		IPAddress:   viewer.IP,
	}
	if err := s.repo.UpsertDocument(ctx, doc, history); err != nil {
		_ = os.Remove(filepath.Join(dir, name))
		return nil, err
	}

	s.metrics.RecordUpload(string(docType))
	log.Printf("✅ Document stored: renewal=%s type=%s size=%d", in.RenewalID, docType, doc.SizeBytes)
	return doc, nil
}

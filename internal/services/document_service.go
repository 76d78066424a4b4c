package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/gorm"
)

// DocumentFilter narrows List. Zero values match everything.
type DocumentFilter struct {
	VendorID string
	Status   models.DocumentStatus
	Type     models.DocumentType
}

// DocumentSummary is a document row with its vendor and finding count.
type DocumentSummary struct {
	models.Document
	FindingCount int64 `json:"finding_count"`
}

// DocumentInput registers an uploaded document.
type DocumentInput struct {
	VendorID       string              `json:"vendor_id" binding:"required"`
	DocumentType   models.DocumentType `json:"document_type" binding:"required,oneof=SOC2_TYPE1 SOC2_TYPE2 ISO27001 PENTEST VULNERABILITY_SCAN SIG_QUESTIONNAIRE CAIQ CUSTOM_QUESTIONNAIRE INSURANCE_CERTIFICATE BUSINESS_CONTINUITY PRIVACY_POLICY OTHER"`
	DocumentName   string              `json:"document_name" binding:"required"`
	DocumentDate   *time.Time          `json:"document_date"`
	ExpirationDate *time.Time          `json:"expiration_date"`
}

type DocumentService struct {
	db *gorm.DB
}

func NewDocumentService(db *gorm.DB) *DocumentService {
	return &DocumentService{db: db}
}

// List returns documents newest upload first.
func (s *DocumentService) List(ctx context.Context, f DocumentFilter) ([]DocumentSummary, error) {
	query := s.db.WithContext(ctx).
		Preload("Vendor", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Order("upload_date desc")
	if f.VendorID != "" {
		query = query.Where("vendor_id = ?", f.VendorID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		query = query.Where("document_type = ?", f.Type)
	}

	var docs []models.Document
	if err := query.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]DocumentSummary, 0, len(docs))
	for _, d := range docs {
		sum := DocumentSummary{Document: d}
		if err := s.db.WithContext(ctx).Model(&models.RiskFinding{}).
			Where("document_id = ?", d.ID).Count(&sum.FindingCount).Error; err != nil {
			return nil, fmt.Errorf("count findings: %w", err)
		}
		out = append(out, sum)
	}
	return out, nil
}

// Get returns one document.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	var d models.Document
	err := s.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create stores a RECEIVED document as the vendor's current one of its type.
// Earlier current documents of the same type stop being current.
func (s *DocumentService) Create(ctx context.Context, in DocumentInput) (*models.Document, error) {
	name := strings.TrimSpace(in.DocumentName)
	if name == "" {
		return nil, fmt.Errorf("%w: document name is required", ErrInvalidInput)
	}

	doc := models.Document{
		VendorID:       in.VendorID,
		DocumentType:   in.DocumentType,
		DocumentName:   name,
		DocumentDate:   in.DocumentDate,
		ExpirationDate: in.ExpirationDate,
		Status:         models.DocumentStatusReceived,
		Source:         "Manual Upload",
		IsCurrent:      true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Vendor{}).Where("id = ?", in.VendorID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrVendorNotFound
		}
		if err := tx.Model(&models.Document{}).
			Where("vendor_id = ? AND document_type = ? AND is_current = ?", in.VendorID, in.DocumentType, true).
			Update("is_current", false).Error; err != nil {
			return fmt.Errorf("supersede documents: %w", err)
		}
		if err := tx.Create(&doc).Error; err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

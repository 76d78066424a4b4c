package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentType string

const (
	DocumentSOC2Type1            DocumentType = "SOC2_TYPE1"
	DocumentSOC2Type2            DocumentType = "SOC2_TYPE2"
	DocumentISO27001             DocumentType = "ISO27001"
	DocumentPentest              DocumentType = "PENTEST"
	DocumentVulnerabilityScan    DocumentType = "VULNERABILITY_SCAN"
	DocumentSIGQuestionnaire     DocumentType = "SIG_QUESTIONNAIRE"
	DocumentCAIQ                 DocumentType = "CAIQ"
	DocumentCustomQuestionnaire  DocumentType = "CUSTOM_QUESTIONNAIRE"
	DocumentInsuranceCertificate DocumentType = "INSURANCE_CERTIFICATE"
	DocumentBusinessContinuity   DocumentType = "BUSINESS_CONTINUITY"
	DocumentPrivacyPolicy        DocumentType = "PRIVACY_POLICY"
	DocumentOther                DocumentType = "OTHER"
)

type DocumentStatus string

const (
	DocumentStatusPending   DocumentStatus = "PENDING"
	DocumentStatusReceived  DocumentStatus = "RECEIVED"
	DocumentStatusAnalyzing DocumentStatus = "ANALYZING"
	DocumentStatusAnalyzed  DocumentStatus = "ANALYZED"
	DocumentStatusExpired   DocumentStatus = "EXPIRED"
	DocumentStatusRejected  DocumentStatus = "REJECTED"
)

// Document is a piece of vendor evidence. Only one document per vendor and
// type is current at a time.
type Document struct {
	ID             string         `json:"id" gorm:"primaryKey"`
	VendorID       string         `json:"vendor_id" gorm:"index;not null"`
	DocumentType   DocumentType   `json:"document_type" gorm:"index"`
	DocumentName   string         `json:"document_name"`
	DocumentDate   *time.Time     `json:"document_date,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty" gorm:"index"`
	Status         DocumentStatus `json:"status" gorm:"index"`
	Source         string         `json:"source,omitempty"`
	RetrievedBy    string         `json:"retrieved_by,omitempty"`
	IsCurrent      bool           `json:"is_current"`
	AnalysisResult string         `json:"analysis_result,omitempty" gorm:"type:text"`
	UploadDate     time.Time      `json:"upload_date"`

	Vendor *Vendor `json:"vendor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.UploadDate.IsZero() {
		d.UploadDate = time.Now()
	}
	return
}

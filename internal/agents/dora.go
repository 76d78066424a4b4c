package agents

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/risk"
	"github.com/Wikid82/warden/backend/internal/services"
	"gorm.io/gorm"
)

// ExpiryWindow is how far ahead a document counts as expiring.
const ExpiryWindow = 30 * 24 * time.Hour

// DocumentRequestInput describes the evidence to request from a vendor.
type DocumentRequestInput struct {
	VendorID          string                `json:"vendor_id"`
	VendorName        string                `json:"vendor_name"`
	VendorEmail       string                `json:"vendor_email"`
	RequiredDocuments []models.DocumentType `json:"required_documents"`
	DueDate           time.Time             `json:"due_date"`
}

// RequestedDocument is one line of a document request.
type RequestedDocument struct {
	DocumentID string              `json:"document_id"`
	Type       models.DocumentType `json:"type"`
	Label      string              `json:"label"`
	Priority   string              `json:"priority"`
	DueDate    time.Time           `json:"due_date"`
	Status     string              `json:"status"`
}

// DocumentRequestOutput is the stored request and the email sent for it.
type DocumentRequestOutput struct {
	VendorID           string              `json:"vendor_id"`
	RequestedDocuments []RequestedDocument `json:"requested_documents"`
	EmailSubject       string              `json:"email_subject"`
	EmailBody          string              `json:"email_body"`
	FollowUpSchedule   []string            `json:"follow_up_schedule"`
	Emailed            bool                `json:"emailed"`
}

// InventoryDocument is the collection status of one stored document.
type InventoryDocument struct {
	DocumentID        string                `json:"document_id"`
	Type              models.DocumentType   `json:"type"`
	Status            models.DocumentStatus `json:"status"`
	ExpirationDate    *time.Time            `json:"expiration_date,omitempty"`
	CompletenessScore int                   `json:"completeness_score"`
}

// Inventory summarizes a vendor's evidence against its tier's requirements.
type Inventory struct {
	VendorID                 string                `json:"vendor_id"`
	RiskTier                 models.RiskTier       `json:"risk_tier"`
	Documents                []InventoryDocument   `json:"documents"`
	OverallCompletenessScore int                   `json:"overall_completeness_score"`
	MissingDocuments         []models.DocumentType `json:"missing_documents"`
	ExpiringDocuments        []models.DocumentType `json:"expiring_documents"`
}

type doraResponse struct {
	RequestedDocuments []struct {
		Type     string `json:"type" validate:"required"`
		Priority string `json:"priority" validate:"required,oneof=HIGH MEDIUM LOW"`
	} `json:"requestedDocuments" validate:"dive"`
	EmailSubject     string   `json:"emailSubject" validate:"required,max=200"`
	EmailBody        string   `json:"emailBody" validate:"required"`
	FollowUpSchedule []string `json:"followUpSchedule"`
}

// DORA requests and tracks vendor documentation.
type DORA struct {
	base
	mailer Mailer
}

func NewDORA(deps Deps) *DORA {
	return &DORA{
		base:   newBase(NameDORA, 0.2, 2000, doraSystemPrompt, deps),
		mailer: deps.Mailer,
	}
}

func (a *DORA) Execute(ctx context.Context, in DocumentRequestInput) Result[DocumentRequestOutput] {
	return a.CreateDocumentRequest(ctx, in)
}

// CreateDocumentRequest drafts the request email, stores one PENDING document
// per required type, records a DOCUMENT_REQUEST notification and emails the
// vendor when mail is configured.
func (a *DORA) CreateDocumentRequest(ctx context.Context, in DocumentRequestInput) Result[DocumentRequestOutput] {
	start := time.Now()
	out, err := a.request(ctx, in)

	labels := make([]string, 0, len(in.RequiredDocuments))
	for _, t := range in.RequiredDocuments {
		labels = append(labels, risk.DocumentLabel(t))
	}
	entry := models.AgentActivityLog{
		ActivityType: "DOCUMENT_REQUEST",
		EntityType:   "Vendor",
		EntityID:     in.VendorID,
		InputSummary: "Vendor: " + in.VendorName,
	}
	if err == nil {
		entry.ActionTaken = fmt.Sprintf("Created document request for %d documents", len(in.RequiredDocuments))
		entry.OutputSummary = "Requested: " + strings.Join(labels, ", ")
	}
	a.record(ctx, start, entry, err)
	return finish(&a.base, start, out, err)
}

func (a *DORA) request(ctx context.Context, in DocumentRequestInput) (*DocumentRequestOutput, error) {
	if len(in.RequiredDocuments) == 0 {
		return nil, fmt.Errorf("%w: no documents to request", services.ErrInvalidInput)
	}
	if in.DueDate.IsZero() {
		in.DueDate = a.now().AddDate(0, 0, 14)
	}

	var resp doraResponse
	if err := a.invokeJSON(ctx, doraPrompt(in), &resp); err != nil {
		return nil, err
	}

	priorities := make(map[models.DocumentType]string, len(resp.RequestedDocuments))
	for _, d := range resp.RequestedDocuments {
		priorities[risk.ParseDocumentType(d.Type)] = d.Priority
	}

	requested := make([]RequestedDocument, 0, len(in.RequiredDocuments))
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range in.RequiredDocuments {
			doc := models.Document{
				VendorID:     in.VendorID,
				DocumentType: t,
				DocumentName: risk.DocumentLabel(t) + " - Requested",
				Status:       models.DocumentStatusPending,
				Source:       "Vendor Request",
				RetrievedBy:  string(NameDORA),
				IsCurrent:    true,
			}
			if err := tx.Create(&doc).Error; err != nil {
				return fmt.Errorf("create requested document: %w", err)
			}
			requested = append(requested, RequestedDocument{
				DocumentID: doc.ID,
				Type:       t,
				Label:      risk.DocumentLabel(t),
				Priority:   orDefault(priorities[t], "MEDIUM"),
				DueDate:    in.DueDate,
				Status:     string(models.DocumentStatusPending),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.notify(ctx, &models.Notification{
		Type:              models.NotificationTypeDocumentRequest,
		RecipientType:     models.RecipientVendor,
		RecipientID:       in.VendorID,
		Title:             resp.EmailSubject,
		Message:           resp.EmailBody,
		RelatedEntityType: "Vendor",
		RelatedEntityID:   in.VendorID,
	})

	emailed := false
	if a.mailer != nil && in.VendorEmail != "" {
		if err := a.mailer.Send(ctx, in.VendorEmail, resp.EmailSubject, resp.EmailBody); err != nil {
			a.log().WithError(err).WithField("vendor_id", in.VendorID).Warn("failed to email document request")
		} else {
			emailed = true
		}
	}

	return &DocumentRequestOutput{
		VendorID:           in.VendorID,
		RequestedDocuments: requested,
		EmailSubject:       resp.EmailSubject,
		EmailBody:          resp.EmailBody,
		FollowUpSchedule:   nonNil(resp.FollowUpSchedule),
		Emailed:            emailed,
	}, nil
}

// CheckDocumentInventory compares a vendor's documents with the evidence its
// current tier requires. Vendors without a profile are treated as MEDIUM.
func (a *DORA) CheckDocumentInventory(ctx context.Context, vendorID string) Result[Inventory] {
	start := time.Now()
	out, err := a.inventory(ctx, vendorID)

	entry := models.AgentActivityLog{
		ActivityType: "INVENTORY_CHECK",
		EntityType:   "Vendor",
		EntityID:     vendorID,
		ActionTaken:  "Checked document inventory",
	}
	if err == nil {
		entry.OutputSummary = fmt.Sprintf("Completeness: %d%%, Missing: %d", out.OverallCompletenessScore, len(out.MissingDocuments))
	}
	a.record(ctx, start, entry, err)
	return finish(&a.base, start, out, err)
}

func (a *DORA) inventory(ctx context.Context, vendorID string) (*Inventory, error) {
	db := a.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Vendor{}).Where("id = ?", vendorID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, services.ErrVendorNotFound
	}

	var documents []models.Document
	if err := db.Where("vendor_id = ?", vendorID).Order("upload_date desc").Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	tier := models.RiskTierMedium
	var profile models.RiskProfile
	err := db.Where("vendor_id = ?", vendorID).Order("created_at desc").First(&profile).Error
	switch {
	case err == nil:
		tier = profile.RiskTier
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("load risk profile: %w", err)
	}
	required := risk.RequiredDocuments(tier)

	horizon := a.now().Add(ExpiryWindow)
	inv := &Inventory{
		VendorID:          vendorID,
		RiskTier:          tier,
		Documents:         make([]InventoryDocument, 0, len(documents)),
		MissingDocuments:  []models.DocumentType{},
		ExpiringDocuments: []models.DocumentType{},
	}
	received := make(map[models.DocumentType]bool)
	for _, d := range documents {
		inv.Documents = append(inv.Documents, InventoryDocument{
			DocumentID:        d.ID,
			Type:              d.DocumentType,
			Status:            d.Status,
			ExpirationDate:    d.ExpirationDate,
			CompletenessScore: completeness(d.Status),
		})
		switch d.Status {
		case models.DocumentStatusReceived, models.DocumentStatusAnalyzing, models.DocumentStatusAnalyzed:
			received[d.DocumentType] = true
		}
		if d.IsCurrent && d.Status != models.DocumentStatusExpired &&
			d.ExpirationDate != nil && !d.ExpirationDate.After(horizon) {
			inv.ExpiringDocuments = append(inv.ExpiringDocuments, d.DocumentType)
		}
	}

	have := 0
	for _, t := range required {
		if received[t] {
			have++
			continue
		}
		inv.MissingDocuments = append(inv.MissingDocuments, t)
	}
	inv.OverallCompletenessScore = 100
	if len(required) > 0 {
		inv.OverallCompletenessScore = int(math.Round(float64(have) / float64(len(required)) * 100))
	}
	return inv, nil
}

func completeness(status models.DocumentStatus) int {
	switch status {
	case models.DocumentStatusAnalyzed:
		return 100
	case models.DocumentStatusReceived:
		return 50
	default:
		return 0
	}
}

func doraPrompt(in DocumentRequestInput) string {
	labels := make([]string, 0, len(in.RequiredDocuments))
	for _, t := range in.RequiredDocuments {
		labels = append(labels, risk.DocumentLabel(t))
	}
	var b strings.Builder
	b.WriteString("Create a documentation request for the following vendor:\n\n")
	fmt.Fprintf(&b, "Vendor ID: %s\n", in.VendorID)
	fmt.Fprintf(&b, "Vendor Name: %s\n", in.VendorName)
	fmt.Fprintf(&b, "Vendor Email: %s\n", in.VendorEmail)
	fmt.Fprintf(&b, "Required Documents: %s\n", strings.Join(labels, ", "))
	fmt.Fprintf(&b, "Due Date: %s\n", in.DueDate.Format("2006-01-02"))
	b.WriteString(`
Generate a professional email requesting these documents, a priority for each document and a follow-up schedule.

Respond with the following JSON:
{
  "requestedDocuments": [
    {"type": "document name as listed above", "priority": "HIGH|MEDIUM|LOW"}
  ],
  "emailSubject": "subject line",
  "emailBody": "email body",
  "followUpSchedule": ["YYYY-MM-DD follow-up dates"]
}`)
	return b.String()
}

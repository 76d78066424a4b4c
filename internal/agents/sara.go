package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/risk"
	"github.com/Wikid82/warden/backend/internal/services"
	"gorm.io/gorm"
)

// VendorContext is the vendor background handed to document analysis.
type VendorContext struct {
	Name       string          `json:"name"`
	RiskTier   models.RiskTier `json:"risk_tier"`
	DataAccess []string        `json:"data_access"`
}

// AnalysisInput is a document to analyze.
type AnalysisInput struct {
	VendorID        string              `json:"vendor_id"`
	DocumentID      string              `json:"document_id"`
	DocumentType    models.DocumentType `json:"document_type"`
	DocumentContent string              `json:"document_content"`
	VendorContext   VendorContext       `json:"vendor_context"`
}

// AnalysisOutput lists the findings persisted for one document.
type AnalysisOutput struct {
	VendorID              string               `json:"vendor_id"`
	DocumentID            string               `json:"document_id"`
	Findings              []models.RiskFinding `json:"findings"`
	OverallRiskAssessment string               `json:"overall_risk_assessment"`
	ComplianceGaps        []string             `json:"compliance_gaps"`
	StrengthAreas         []string             `json:"strength_areas"`
}

type saraFinding struct {
	Title             string   `json:"title" validate:"required"`
	Description       string   `json:"description" validate:"required"`
	Severity          string   `json:"severity" validate:"required,oneof=CRITICAL HIGH MEDIUM LOW INFORMATIONAL"`
	Category          string   `json:"category" validate:"required"`
	AffectedControls  []string `json:"affectedControls"`
	RiskMapping       string   `json:"riskMapping"`
	SourceReference   string   `json:"sourceReference"`
	RecommendedAction string   `json:"recommendedAction"`
}

type saraResponse struct {
	Findings              []saraFinding `json:"findings" validate:"required,dive"`
	OverallRiskAssessment string        `json:"overallRiskAssessment" validate:"required"`
	ComplianceGaps        []string      `json:"complianceGaps"`
	StrengthAreas         []string      `json:"strengthAreas"`
}

// SARA analyzes vendor security documents into findings.
type SARA struct {
	base
}

func NewSARA(deps Deps) *SARA {
	return &SARA{base: newBase(NameSARA, 0.2, 4000, saraSystemPrompt, deps)}
}

// BuildInput loads the vendor context for documentID. The document must
// belong to vendorID.
func (a *SARA) BuildInput(ctx context.Context, vendorID, documentID, content string) (AnalysisInput, error) {
	db := a.db.WithContext(ctx)

	var vendor models.Vendor
	if err := db.First(&vendor, "id = ?", vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AnalysisInput{}, services.ErrVendorNotFound
		}
		return AnalysisInput{}, err
	}
	var doc models.Document
	if err := db.First(&doc, "id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AnalysisInput{}, services.ErrDocumentNotFound
		}
		return AnalysisInput{}, err
	}
	if doc.VendorID != vendorID {
		return AnalysisInput{}, services.ErrDocumentVendorMismatch
	}

	vc, err := a.vendorContext(ctx, vendor)
	if err != nil {
		return AnalysisInput{}, err
	}
	if strings.TrimSpace(content) == "" {
		content = DocumentPlaceholder(doc)
	}
	return AnalysisInput{
		VendorID:        vendorID,
		DocumentID:      documentID,
		DocumentType:    doc.DocumentType,
		DocumentContent: content,
		VendorContext:   vc,
	}, nil
}

// vendorContext returns the analysis context for vendor from its latest
// profile, defaulting to MEDIUM when it has none.
func (a *SARA) vendorContext(ctx context.Context, vendor models.Vendor) (VendorContext, error) {
	vc := VendorContext{Name: vendor.Name, RiskTier: models.RiskTierMedium, DataAccess: []string{}}
	var profile models.RiskProfile
	err := a.db.WithContext(ctx).Where("vendor_id = ?", vendor.ID).Order("created_at desc").First(&profile).Error
	switch {
	case err == nil:
		vc.RiskTier = profile.RiskTier
		vc.DataAccess = nonNil(profile.DataTypesAccessed)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return vc, fmt.Errorf("load risk profile: %w", err)
	}
	return vc, nil
}

// DocumentPlaceholder stands in for document text when none was supplied.
func DocumentPlaceholder(doc models.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document Type: %s\n", doc.DocumentType)
	fmt.Fprintf(&b, "Document Name: %s\n", doc.DocumentName)
	if doc.DocumentDate != nil {
		fmt.Fprintf(&b, "Document Date: %s\n", doc.DocumentDate.Format("2006-01-02"))
	}
	if doc.ExpirationDate != nil {
		fmt.Fprintf(&b, "Expiration Date: %s\n", doc.ExpirationDate.Format("2006-01-02"))
	}
	if doc.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", doc.Source)
	}
	return b.String()
}

func (a *SARA) Execute(ctx context.Context, in AnalysisInput) Result[AnalysisOutput] {
	start := time.Now()
	out, err := a.analyze(ctx, in)

	entry := models.AgentActivityLog{
		ActivityType: "DOCUMENT_ANALYSIS",
		EntityType:   "Document",
		EntityID:     in.DocumentID,
		InputSummary: "Vendor: " + in.VendorContext.Name,
	}
	if err == nil {
		severe := 0
		for _, f := range out.Findings {
			if f.Severity.IsCriticalOrHigh() {
				severe++
			}
		}
		entry.ActionTaken = fmt.Sprintf("Analyzed %s document", in.DocumentType)
		entry.OutputSummary = fmt.Sprintf("Found %d findings (%d critical/high)", len(out.Findings), severe)
	}
	a.record(ctx, start, entry, err)
	return finish(&a.base, start, out, err)
}

func (a *SARA) analyze(ctx context.Context, in AnalysisInput) (*AnalysisOutput, error) {
	db := a.db.WithContext(ctx)

	var doc models.Document
	if err := db.First(&doc, "id = ?", in.DocumentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrDocumentNotFound
		}
		return nil, err
	}
	if doc.VendorID != in.VendorID {
		return nil, services.ErrDocumentVendorMismatch
	}
	if in.DocumentType == "" {
		in.DocumentType = doc.DocumentType
	}

	previous := doc.Status
	if err := db.Model(&doc).Update("status", models.DocumentStatusAnalyzing).Error; err != nil {
		return nil, fmt.Errorf("mark document analyzing: %w", err)
	}

	out, err := a.analyzeAndStore(ctx, in)
	if err != nil {
		// Put the document back so it can be re-submitted.
		if rerr := a.db.WithContext(context.WithoutCancel(ctx)).Model(&doc).Update("status", previous).Error; rerr != nil {
			a.log().WithError(rerr).WithField("document_id", doc.ID).Error("failed to restore document status")
		}
		return nil, err
	}

	for _, f := range out.Findings {
		if !f.Severity.IsCriticalOrHigh() {
			continue
		}
		a.notify(ctx, &models.Notification{
			Type:              models.NotificationTypeFinding,
			RecipientType:     models.RecipientInternal,
			Title:             fmt.Sprintf("[%s] %s", f.Severity, f.Title),
			Message:           fmt.Sprintf("%s finding identified for %s in %s.", f.Severity, in.VendorContext.Name, risk.DocumentLabel(in.DocumentType)),
			RelatedEntityType: "RiskFinding",
			RelatedEntityID:   f.ID,
		})
	}
	return out, nil
}

func (a *SARA) analyzeAndStore(ctx context.Context, in AnalysisInput) (*AnalysisOutput, error) {
	var resp saraResponse
	if err := a.invokeJSON(ctx, saraPrompt(in), &resp); err != nil {
		return nil, err
	}

	now := a.now()
	findings := make([]models.RiskFinding, 0, len(resp.Findings))
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, f := range resp.Findings {
			severity := models.Severity(f.Severity)
			due := risk.FindingDueDate(severity, now)
			documentID := in.DocumentID
			finding := models.RiskFinding{
				VendorID:          in.VendorID,
				DocumentID:        &documentID,
				FindingType:       string(in.DocumentType),
				FindingCategory:   f.Category,
				Severity:          severity,
				Title:             f.Title,
				Description:       f.Description,
				RiskMapping:       f.RiskMapping,
				AffectedControls:  nonNil(f.AffectedControls),
				SourceReference:   f.SourceReference,
				RecommendedAction: f.RecommendedAction,
				IdentifiedBy:      string(NameSARA),
				IdentifiedDate:    now,
				Status:            models.FindingStatusOpen,
				DueDate:           &due,
			}
			if err := tx.Create(&finding).Error; err != nil {
				return fmt.Errorf("save finding: %w", err)
			}
			findings = append(findings, finding)
		}
		return tx.Model(&models.Document{}).Where("id = ?", in.DocumentID).Updates(map[string]any{
			"status":          models.DocumentStatusAnalyzed,
			"analysis_result": resp.OverallRiskAssessment,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &AnalysisOutput{
		VendorID:              in.VendorID,
		DocumentID:            in.DocumentID,
		Findings:              findings,
		OverallRiskAssessment: resp.OverallRiskAssessment,
		ComplianceGaps:        nonNil(resp.ComplianceGaps),
		StrengthAreas:         nonNil(resp.StrengthAreas),
	}, nil
}

func saraPrompt(in AnalysisInput) string {
	var b strings.Builder
	b.WriteString("Analyze the following security document for vendor risk findings:\n\n")
	b.WriteString("Vendor Context:\n")
	fmt.Fprintf(&b, "- Vendor ID: %s\n", in.VendorID)
	fmt.Fprintf(&b, "- Vendor Name: %s\n", in.VendorContext.Name)
	fmt.Fprintf(&b, "- Current Risk Tier: %s\n", in.VendorContext.RiskTier)
	fmt.Fprintf(&b, "- Data Access: %s\n", joinOr(in.VendorContext.DataAccess, "None specified"))
	b.WriteString("\nDocument Information:\n")
	fmt.Fprintf(&b, "- Document ID: %s\n", in.DocumentID)
	fmt.Fprintf(&b, "- Document Type: %s\n", in.DocumentType)
	b.WriteString("\nDocument Content:\n")
	b.WriteString(in.DocumentContent)
	b.WriteString(`

---

Respond with the following JSON:
{
  "findings": [
    {
      "title": "brief title",
      "description": "detailed description of the issue",
      "severity": "CRITICAL|HIGH|MEDIUM|LOW|INFORMATIONAL",
      "category": "security category",
      "affectedControls": ["affected control areas"],
      "riskMapping": "risk framework category",
      "sourceReference": "section or page in the document",
      "recommendedAction": "specific remediation recommendation"
    }
  ],
  "overallRiskAssessment": "summary of the vendor's security posture based on this document",
  "complianceGaps": ["compliance gaps identified"],
  "strengthAreas": ["strong controls noted"]
}`)
	return b.String()
}

package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"gorm.io/gorm"
)

// VendorFilter narrows List. Zero values match everything.
type VendorFilter struct {
	Status   models.VendorStatus
	RiskTier models.RiskTier
	Search   string
	Page     int
	Limit    int
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func newPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// normalizePage clamps page to >= 1 and limit to (0, maxLimit].
func normalizePage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// VendorSummary is a vendor row in a listing.
type VendorSummary struct {
	models.Vendor
	LatestProfile *models.RiskProfile `json:"latest_profile,omitempty"`
	OpenFindings  int64               `json:"open_findings"`
	DocumentCount int64               `json:"document_count"`
}

// VendorInput is the writable part of a vendor. Nil fields are left
// unchanged on update.
type VendorInput struct {
	Name                *string              `json:"name" binding:"omitempty,min=1"`
	LegalName           *string              `json:"legal_name"`
	DUNSNumber          *string              `json:"duns_number"`
	Website             *string              `json:"website" binding:"omitempty,url"`
	Industry            *string              `json:"industry"`
	Country             *string              `json:"country"`
	StateProvince       *string              `json:"state_province"`
	PrimaryContactName  *string              `json:"primary_contact_name"`
	PrimaryContactEmail *string              `json:"primary_contact_email" binding:"omitempty,email"`
	PrimaryContactPhone *string              `json:"primary_contact_phone"`
	BusinessOwner       *string              `json:"business_owner"`
	ITOwner             *string              `json:"it_owner"`
	ContractStartDate   *time.Time           `json:"contract_start_date"`
	ContractEndDate     *time.Time           `json:"contract_end_date"`
	AnnualSpend         *float64             `json:"annual_spend" binding:"omitempty,gte=0"`
	Status              *models.VendorStatus `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE PENDING TERMINATED"`
}

// changes returns the column updates carried by in.
func (in VendorInput) changes() map[string]any {
	m := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			m[col] = strings.TrimSpace(*v)
		}
	}
	set("name", in.Name)
	set("legal_name", in.LegalName)
	set("duns_number", in.DUNSNumber)
	set("website", in.Website)
	set("industry", in.Industry)
	set("country", in.Country)
	set("state_province", in.StateProvince)
	set("primary_contact_name", in.PrimaryContactName)
	set("primary_contact_email", in.PrimaryContactEmail)
	set("primary_contact_phone", in.PrimaryContactPhone)
	set("business_owner", in.BusinessOwner)
	set("it_owner", in.ITOwner)
	if in.ContractStartDate != nil {
		m["contract_start_date"] = *in.ContractStartDate
	}
	if in.ContractEndDate != nil {
		m["contract_end_date"] = *in.ContractEndDate
	}
	if in.AnnualSpend != nil {
		m["annual_spend"] = *in.AnnualSpend
	}
	if in.Status != nil {
		m["status"] = string(*in.Status)
	}
	return m
}

// VendorService manages the vendor inventory. Every write is recorded in
// the audit trail.
type VendorService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewVendorService(db *gorm.DB) *VendorService {
	return &VendorService{db: db, audit: NewAuditService(db)}
}

// latestProfileSQL selects the newest risk profile row of every vendor.
const latestProfileSQL = `SELECT p.vendor_id FROM risk_profiles p
WHERE p.risk_tier = ? AND p.created_at = (
	SELECT MAX(p2.created_at) FROM risk_profiles p2 WHERE p2.vendor_id = p.vendor_id
)`

// List returns a page of vendors ordered by name. RiskTier matches the
// vendor's latest profile.
func (s *VendorService) List(ctx context.Context, f VendorFilter) ([]VendorSummary, Pagination, error) {
	page, limit := normalizePage(f.Page, f.Limit, 20, 100)

	query := s.db.WithContext(ctx).Model(&models.Vendor{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(industry) LIKE ?", like, like)
	}
	if f.RiskTier != "" {
		query = query.Where("id IN (?)", s.db.Raw(latestProfileSQL, f.RiskTier))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("count vendors: %w", err)
	}

	var vendors []models.Vendor
	if err := query.Order("name asc").Offset((page - 1) * limit).Limit(limit).Find(&vendors).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("list vendors: %w", err)
	}

	out := make([]VendorSummary, 0, len(vendors))
	for _, v := range vendors {
		sum := VendorSummary{Vendor: v}
		profile, err := s.LatestProfile(ctx, v.ID)
		if err != nil {
			return nil, Pagination{}, err
		}
		sum.LatestProfile = profile
		if err := s.db.WithContext(ctx).Model(&models.RiskFinding{}).
			Where("vendor_id = ? AND status <> ?", v.ID, models.FindingStatusClosed).
			Count(&sum.OpenFindings).Error; err != nil {
			return nil, Pagination{}, fmt.Errorf("count findings: %w", err)
		}
		if err := s.db.WithContext(ctx).Model(&models.Document{}).
			Where("vendor_id = ?", v.ID).Count(&sum.DocumentCount).Error; err != nil {
			return nil, Pagination{}, fmt.Errorf("count documents: %w", err)
		}
		out = append(out, sum)
	}
	return out, newPagination(page, limit, total), nil
}

// LatestProfile returns the newest risk profile of a vendor, or nil.
func (s *VendorService) LatestProfile(ctx context.Context, vendorID string) (*models.RiskProfile, error) {
	var p models.RiskProfile
	err := s.db.WithContext(ctx).Where("vendor_id = ?", vendorID).Order("created_at desc").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load risk profile: %w", err)
	}
	return &p, nil
}

// Get returns a vendor with its profiles, five latest assessments, current
// documents, open findings and open remediation actions.
func (s *VendorService) Get(ctx context.Context, id string) (*models.Vendor, error) {
	var v models.Vendor
	err := s.db.WithContext(ctx).
		Preload("RiskProfiles", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
		Preload("RiskAssessments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc").Limit(5) }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_current = ?", true).Order("upload_date desc")
		}).
		Preload("RiskFindings", func(db *gorm.DB) *gorm.DB {
			return db.Where("status <> ?", models.FindingStatusClosed).Order(severityOrder + ", created_at desc")
		}).
		Preload("RemediationActions", func(db *gorm.DB) *gorm.DB {
			return db.Where("status <> ?", models.RemediationStatusClosed).Order("due_date asc")
		}).
		First(&v, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVendorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Exists reports whether a vendor with id exists.
func (s *VendorService) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create adds a vendor in PENDING status.
func (s *VendorService) Create(ctx context.Context, actor string, in VendorInput) (*models.Vendor, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	changes := in.changes()
	delete(changes, "status")

	v := models.Vendor{Status: models.VendorStatusPending}
	applyVendorChanges(&v, changes)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&v).Error; err != nil {
			return fmt.Errorf("create vendor: %w", err)
		}
		return NewAuditService(tx).Record(ctx, &models.AuditTrail{
			Actor:      actor,
			Action:     models.AuditActionCreate,
			EntityType: "Vendor",
			EntityID:   v.ID,
			NewValues:  changes,
		})
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Update applies the non-nil fields of in and records old and new values.
func (s *VendorService) Update(ctx context.Context, actor, id string, in VendorInput) (*models.Vendor, error) {
	changes := in.changes()
	if name, ok := changes["name"]; ok && name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}

	var v models.Vendor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&v, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVendorNotFound
			}
			return err
		}
		old := vendorValues(v, changes)
		if len(changes) > 0 {
			if err := tx.Model(&v).Updates(changes).Error; err != nil {
				return fmt.Errorf("update vendor: %w", err)
			}
		}
		return NewAuditService(tx).Record(ctx, &models.AuditTrail{
			Actor:      actor,
			Action:     models.AuditActionUpdate,
			EntityType: "Vendor",
			EntityID:   id,
			OldValues:  old,
			NewValues:  changes,
		})
	})
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// SetStatus moves a vendor to status without an audit entry of its own.
func (s *VendorService) SetStatus(ctx context.Context, id string, status models.VendorStatus) error {
	res := s.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVendorNotFound
	}
	return nil
}

// Terminate soft-deletes a vendor by moving it to TERMINATED.
func (s *VendorService) Terminate(ctx context.Context, actor, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.Vendor
		if err := tx.First(&v, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVendorNotFound
			}
			return err
		}
		if err := tx.Model(&v).Update("status", models.VendorStatusTerminated).Error; err != nil {
			return fmt.Errorf("terminate vendor: %w", err)
		}
		return NewAuditService(tx).Record(ctx, &models.AuditTrail{
			Actor:      actor,
			Action:     models.AuditActionDelete,
			EntityType: "Vendor",
			EntityID:   id,
			OldValues:  map[string]any{"status": string(v.Status)},
			NewValues:  map[string]any{"status": string(models.VendorStatusTerminated)},
		})
	})
}

func applyVendorChanges(v *models.Vendor, m map[string]any) {
	str := func(col string) string {
		s, _ := m[col].(string)
		return s
	}
	v.Name = str("name")
	v.LegalName = str("legal_name")
	v.DUNSNumber = str("duns_number")
	v.Website = str("website")
	v.Industry = str("industry")
	v.Country = str("country")
	v.StateProvince = str("state_province")
	v.PrimaryContactName = str("primary_contact_name")
	v.PrimaryContactEmail = str("primary_contact_email")
	v.PrimaryContactPhone = str("primary_contact_phone")
	v.BusinessOwner = str("business_owner")
	v.ITOwner = str("it_owner")
	if t, ok := m["contract_start_date"].(time.Time); ok {
		v.ContractStartDate = &t
	}
	if t, ok := m["contract_end_date"].(time.Time); ok {
		v.ContractEndDate = &t
	}
	if f, ok := m["annual_spend"].(float64); ok {
		v.AnnualSpend = &f
	}
}

// vendorValues returns the current values of the columns named in changes.
func vendorValues(v models.Vendor, changes map[string]any) map[string]any {
	all := map[string]any{
		"name":                  v.Name,
		"legal_name":            v.LegalName,
		"duns_number":           v.DUNSNumber,
		"website":               v.Website,
		"industry":              v.Industry,
		"country":               v.Country,
		"state_province":        v.StateProvince,
		"primary_contact_name":  v.PrimaryContactName,
		"primary_contact_email": v.PrimaryContactEmail,
		"primary_contact_phone": v.PrimaryContactPhone,
		"business_owner":        v.BusinessOwner,
		"it_owner":              v.ITOwner,
		"contract_start_date":   v.ContractStartDate,
		"contract_end_date":     v.ContractEndDate,
		"annual_spend":          v.AnnualSpend,
		"status":                string(v.Status),
	}
	old := make(map[string]any, len(changes))
	for col := range changes {
		old[col] = all[col]
	}
	return old
}

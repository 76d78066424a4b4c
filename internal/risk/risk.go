// Package risk holds the deterministic scoring rules of the risk program:
// inherent-risk scoring, review cadence, required evidence, remediation SLAs
// and escalation levels.
package risk

import (
	"math"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
)

// Factors are the vendor attributes that drive the inherent-risk score.
type Factors struct {
	HasPHIAccess        bool
	HasPIIAccess        bool
	HasPCIAccess        bool
	BusinessCriticality models.BusinessCriticality
	AnnualSpend         float64
}

// MaxScore caps the inherent-risk score.
const MaxScore = 100

// CalculateScore returns the weighted inherent-risk score (0-100) and the
// tier it falls in.
func CalculateScore(f Factors) (int, models.RiskTier) {
	score := 0
	if f.HasPHIAccess {
		score += 30
	}
	if f.HasPIIAccess {
		score += 25
	}
	if f.HasPCIAccess {
		score += 25
	}

	switch f.BusinessCriticality {
	case models.CriticalityMissionCritical:
		score += 30
	case models.CriticalityBusinessCritical:
		score += 20
	case models.CriticalityImportant:
		score += 10
	default:
		score += 5
	}

	switch {
	case f.AnnualSpend > 1_000_000:
		score += 15
	case f.AnnualSpend > 500_000:
		score += 10
	case f.AnnualSpend > 100_000:
		score += 5
	}

	if score > MaxScore {
		score = MaxScore
	}
	return score, TierForScore(score)
}

// TierForScore maps a 0-100 score onto a tier.
func TierForScore(score int) models.RiskTier {
	switch {
	case score >= 80:
		return models.RiskTierCritical
	case score >= 60:
		return models.RiskTierHigh
	case score >= 40:
		return models.RiskTierMedium
	default:
		return models.RiskTierLow
	}
}

// RequiresAssessment reports whether vendors in tier get a detailed
// six-dimension assessment during onboarding.
func RequiresAssessment(tier models.RiskTier) bool {
	return tier == models.RiskTierCritical || tier == models.RiskTierHigh
}

// AssessmentFrequency returns the review cadence label for tier.
func AssessmentFrequency(tier models.RiskTier) string {
	switch tier {
	case models.RiskTierCritical:
		return "Quarterly"
	case models.RiskTierHigh:
		return "Semi-Annual"
	case models.RiskTierMedium:
		return "Annual"
	default:
		return "Biennial"
	}
}

// NextAssessmentDate returns when a vendor in tier is next due for review.
func NextAssessmentDate(tier models.RiskTier, from time.Time) time.Time {
	switch tier {
	case models.RiskTierCritical:
		return from.AddDate(0, 3, 0)
	case models.RiskTierHigh:
		return from.AddDate(0, 6, 0)
	case models.RiskTierMedium:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(2, 0, 0)
	}
}

var requiredDocuments = map[models.RiskTier][]models.DocumentType{
	models.RiskTierCritical: {
		models.DocumentSOC2Type2,
		models.DocumentPentest,
		models.DocumentISO27001,
		models.DocumentBusinessContinuity,
		models.DocumentInsuranceCertificate,
		models.DocumentSIGQuestionnaire,
	},
	models.RiskTierHigh: {
		models.DocumentSOC2Type2,
		models.DocumentVulnerabilityScan,
		models.DocumentSIGQuestionnaire,
		models.DocumentInsuranceCertificate,
	},
	models.RiskTierMedium: {
		models.DocumentCustomQuestionnaire,
		models.DocumentPrivacyPolicy,
		models.DocumentInsuranceCertificate,
	},
	models.RiskTierLow: {
		models.DocumentCustomQuestionnaire,
		models.DocumentPrivacyPolicy,
	},
}

// RequiredDocuments lists the evidence a vendor in tier must supply. Unknown
// tiers get the LOW list.
func RequiredDocuments(tier models.RiskTier) []models.DocumentType {
	docs, ok := requiredDocuments[tier]
	if !ok {
		docs = requiredDocuments[models.RiskTierLow]
	}
	out := make([]models.DocumentType, len(docs))
	copy(out, docs)
	return out
}

var documentLabels = map[models.DocumentType]string{
	models.DocumentSOC2Type1:            "SOC 2 Type I",
	models.DocumentSOC2Type2:            "SOC 2 Type II",
	models.DocumentISO27001:             "ISO 27001",
	models.DocumentPentest:              "Penetration Test",
	models.DocumentVulnerabilityScan:    "Vulnerability Assessment",
	models.DocumentSIGQuestionnaire:     "SIG Questionnaire",
	models.DocumentCAIQ:                 "CAIQ",
	models.DocumentCustomQuestionnaire:  "Security Questionnaire",
	models.DocumentInsuranceCertificate: "Insurance Certificate",
	models.DocumentBusinessContinuity:   "Business Continuity Plan",
	models.DocumentPrivacyPolicy:        "Privacy Policy",
	models.DocumentOther:                "Other",
}

// DocumentLabel returns the human-readable name of t.
func DocumentLabel(t models.DocumentType) string {
	if label, ok := documentLabels[t]; ok {
		return label
	}
	return string(t)
}

// ParseDocumentType maps an enum value or a free-text label (as written by a
// model or an analyst) onto a document type. Unrecognized names are OTHER.
func ParseDocumentType(name string) models.DocumentType {
	trimmed := strings.TrimSpace(name)
	if _, ok := documentLabels[models.DocumentType(strings.ToUpper(trimmed))]; ok {
		return models.DocumentType(strings.ToUpper(trimmed))
	}
	lower := strings.ToLower(trimmed)
	for t, label := range documentLabels {
		if strings.EqualFold(label, trimmed) {
			return t
		}
	}
	switch {
	case strings.Contains(lower, "soc 2 type ii"), strings.Contains(lower, "soc2 type 2"):
		return models.DocumentSOC2Type2
	case strings.Contains(lower, "soc 2"), strings.Contains(lower, "soc2"):
		return models.DocumentSOC2Type1
	case strings.Contains(lower, "iso 27001"), strings.Contains(lower, "iso27001"):
		return models.DocumentISO27001
	case strings.Contains(lower, "penetration"), strings.Contains(lower, "pentest"):
		return models.DocumentPentest
	case strings.Contains(lower, "vulnerability"):
		return models.DocumentVulnerabilityScan
	case strings.HasPrefix(lower, "sig"), strings.Contains(lower, "sig questionnaire"):
		return models.DocumentSIGQuestionnaire
	case strings.Contains(lower, "caiq"):
		return models.DocumentCAIQ
	case strings.Contains(lower, "questionnaire"), strings.Contains(lower, "self-attestation"):
		return models.DocumentCustomQuestionnaire
	case strings.Contains(lower, "insurance"):
		return models.DocumentInsuranceCertificate
	case strings.Contains(lower, "continuity"):
		return models.DocumentBusinessContinuity
	case strings.Contains(lower, "privacy"):
		return models.DocumentPrivacyPolicy
	}
	return models.DocumentOther
}

// FindingDueDate returns the remediation SLA deadline for a finding of the
// given severity.
func FindingDueDate(severity models.Severity, from time.Time) time.Time {
	day := 24 * time.Hour
	switch severity {
	case models.SeverityCritical:
		return from.Add(7 * day)
	case models.SeverityHigh:
		return from.Add(30 * day)
	case models.SeverityMedium:
		return from.Add(90 * day)
	case models.SeverityLow:
		return from.Add(180 * day)
	default:
		return from.Add(365 * day)
	}
}

// DaysOverdue returns the whole days elapsed since due, floored. Items not
// yet due return zero.
func DaysOverdue(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	return int(math.Floor(now.Sub(due).Hours() / 24))
}

// EscalationLevel returns 1-4 for an overdue action. CRITICAL priority or
// more than 30 days overdue escalates to leadership (4); HIGH priority or
// more than 14 days goes to the risk manager (3); more than 7 days goes to
// the analyst (2); anything else is an owner reminder (1).
func EscalationLevel(priority models.Severity, daysOverdue int) int {
	switch {
	case priority == models.SeverityCritical || daysOverdue > 30:
		return 4
	case priority == models.SeverityHigh || daysOverdue > 14:
		return 3
	case daysOverdue > 7:
		return 2
	default:
		return 1
	}
}

// FollowUpHours is the response window for an escalation level.
func FollowUpHours(level int) int {
	if level < 1 {
		level = 1
	}
	return 24 / level
}

package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Wikid82/warden/backend/internal/models"
	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doraReply = `{
  "requestedDocuments": [
    {"type": "SOC 2 Type II", "priority": "HIGH"},
    {"type": "Penetration Test", "priority": "LOW"}
  ],
  "emailSubject": "Security documentation request",
  "emailBody": "Please provide the attached list of documents.",
  "followUpSchedule": ["2025-06-08", "2025-06-15"]
}`

func TestDORA_CreateDocumentRequest(t *testing.T) {
	env := newTestEnv(t, doraReply)
	vendor := createVendor(t, env.db, "Acme Cloud")

	res := NewDORA(env.deps).CreateDocumentRequest(context.Background(), DocumentRequestInput{
		VendorID:    vendor.ID,
		VendorName:  vendor.Name,
		VendorEmail: vendor.PrimaryContactEmail,
		RequiredDocuments: []models.DocumentType{
			models.DocumentSOC2Type2, models.DocumentPentest, models.DocumentISO27001,
		},
	})
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data.RequestedDocuments, 3)

	byType := map[models.DocumentType]RequestedDocument{}
	for _, d := range res.Data.RequestedDocuments {
		byType[d.Type] = d
		assert.Equal(t, testNow.AddDate(0, 0, 14), d.DueDate)
	}
	assert.Equal(t, "HIGH", byType[models.DocumentSOC2Type2].Priority)
	assert.Equal(t, "LOW", byType[models.DocumentPentest].Priority)
	assert.Equal(t, "MEDIUM", byType[models.DocumentISO27001].Priority)
	assert.True(t, res.Data.Emailed)

	var docs []models.Document
	require.NoError(t, env.db.Where("vendor_id = ?", vendor.ID).Find(&docs).Error)
	require.Len(t, docs, 3)
	for _, d := range docs {
		assert.Equal(t, models.DocumentStatusPending, d.Status)
		assert.Equal(t, "Vendor Request", d.Source)
		assert.Equal(t, "DORA", d.RetrievedBy)
		assert.True(t, d.IsCurrent)
	}

	require.Len(t, env.notifier.sent, 1)
	n := env.notifier.sent[0]
	assert.Equal(t, models.NotificationTypeDocumentRequest, n.Type)
	assert.Equal(t, models.RecipientVendor, n.RecipientType)
	assert.Equal(t, vendor.ID, n.RecipientID)
	assert.Equal(t, "DORA", n.SentBy)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "jane@acmecloud.example", env.mailer.sent[0].to)
	assert.Equal(t, "Security documentation request", env.mailer.sent[0].subject)

	logs := activityLogs(t, env.db, NameDORA)
	require.Len(t, logs, 1)
	assert.Equal(t, "Created document request for 3 documents", logs[0].ActionTaken)
}

func TestDORA_CreateDocumentRequest_MailFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t, doraReply)
	env.mailer.err = errors.New("smtp down")
	vendor := createVendor(t, env.db, "Acme Cloud")

	res := NewDORA(env.deps).CreateDocumentRequest(context.Background(), DocumentRequestInput{
		VendorID:          vendor.ID,
		VendorName:        vendor.Name,
		VendorEmail:       vendor.PrimaryContactEmail,
		RequiredDocuments: []models.DocumentType{models.DocumentSOC2Type2},
		DueDate:           testNow.AddDate(0, 1, 0),
	})
	require.True(t, res.Success, res.Error)
	assert.False(t, res.Data.Emailed)
	assert.Equal(t, testNow.AddDate(0, 1, 0), res.Data.RequestedDocuments[0].DueDate)
}

func TestDORA_CreateDocumentRequest_WithoutMailer(t *testing.T) {
	env := newTestEnv(t, doraReply)
	env.deps.Mailer = nil
	vendor := createVendor(t, env.db, "Acme Cloud")

	res := NewDORA(env.deps).CreateDocumentRequest(context.Background(), DocumentRequestInput{
		VendorID:          vendor.ID,
		VendorName:        vendor.Name,
		VendorEmail:       vendor.PrimaryContactEmail,
		RequiredDocuments: []models.DocumentType{models.DocumentSOC2Type2},
	})
	require.True(t, res.Success, res.Error)
	assert.False(t, res.Data.Emailed)
}

func TestDORA_CreateDocumentRequest_Empty(t *testing.T) {
	env := newTestEnv(t)
	res := NewDORA(env.deps).CreateDocumentRequest(context.Background(), DocumentRequestInput{VendorID: "v"})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err(), services.ErrInvalidInput)
	assert.Zero(t, env.llm.Calls())
}

func TestDORA_CheckDocumentInventory(t *testing.T) {
	env := newTestEnv(t)
	vendor := createVendor(t, env.db, "Acme Cloud")
	createProfile(t, env.db, vendor.ID, models.RiskTierHigh, 65)

	soon := testNow.Add(10 * 24 * time.Hour)
	later := testNow.AddDate(1, 0, 0)
	docs := []models.Document{
		{VendorID: vendor.ID, DocumentType: models.DocumentSOC2Type2, Status: models.DocumentStatusAnalyzed, IsCurrent: true, ExpirationDate: &soon},
		{VendorID: vendor.ID, DocumentType: models.DocumentVulnerabilityScan, Status: models.DocumentStatusReceived, IsCurrent: true, ExpirationDate: &later},
		{VendorID: vendor.ID, DocumentType: models.DocumentSIGQuestionnaire, Status: models.DocumentStatusPending, IsCurrent: true},
	}
	for i := range docs {
		require.NoError(t, env.db.Create(&docs[i]).Error)
	}

	res := NewDORA(env.deps).CheckDocumentInventory(context.Background(), vendor.ID)
	require.True(t, res.Success, res.Error)
	inv := res.Data
	assert.Equal(t, models.RiskTierHigh, inv.RiskTier)
	assert.Len(t, inv.Documents, 3)
	assert.Equal(t, 50, inv.OverallCompletenessScore)
	assert.ElementsMatch(t, []models.DocumentType{models.DocumentSIGQuestionnaire, models.DocumentInsuranceCertificate}, inv.MissingDocuments)
	assert.Equal(t, []models.DocumentType{models.DocumentSOC2Type2}, inv.ExpiringDocuments)
	assert.Zero(t, env.llm.Calls())
}

func TestDORA_CheckDocumentInventory_Defaults(t *testing.T) {
	env := newTestEnv(t)
	a := NewDORA(env.deps)

	res := a.CheckDocumentInventory(context.Background(), "missing")
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err(), services.ErrVendorNotFound)

	vendor := createVendor(t, env.db, "Acme Cloud")
	res = a.CheckDocumentInventory(context.Background(), vendor.ID)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, models.RiskTierMedium, res.Data.RiskTier)
	assert.Equal(t, 0, res.Data.OverallCompletenessScore)
	assert.Len(t, res.Data.MissingDocuments, 3)
	assert.Empty(t, res.Data.ExpiringDocuments)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemediationStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to RemediationStatus
		want     bool
	}{
		{RemediationStatusOpen, RemediationStatusInProgress, true},
		{RemediationStatusOpen, RemediationStatusOverdue, false},
		{RemediationStatusInProgress, RemediationStatusOverdue, false},
		{RemediationStatusPendingVerification, RemediationStatusOverdue, false},
		{RemediationStatusOpen, RemediationStatusClosed, false},
		{RemediationStatusOpen, RemediationStatusResolved, false},
		{RemediationStatusInProgress, RemediationStatusPendingVerification, true},
		{RemediationStatusOverdue, RemediationStatusInProgress, true},
		{RemediationStatusOverdue, RemediationStatusPendingVerification, true},
		{RemediationStatusPendingVerification, RemediationStatusResolved, true},
		{RemediationStatusPendingVerification, RemediationStatusAccepted, true},
		{RemediationStatusPendingVerification, RemediationStatusInProgress, true},
		{RemediationStatusResolved, RemediationStatusClosed, true},
		{RemediationStatusAccepted, RemediationStatusClosed, true},
		{RemediationStatusClosed, RemediationStatusOpen, false},
		{RemediationStatusResolved, RemediationStatusOpen, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRemediationStatus_IsOpen(t *testing.T) {
	assert.True(t, RemediationStatusOpen.IsOpen())
	assert.True(t, RemediationStatusPendingVerification.IsOpen())
	assert.False(t, RemediationStatusOverdue.IsOpen())
	assert.False(t, RemediationStatusClosed.IsOpen())
}

func TestSeverity_IsCriticalOrHigh(t *testing.T) {
	assert.True(t, SeverityCritical.IsCriticalOrHigh())
	assert.True(t, SeverityHigh.IsCriticalOrHigh())
	assert.False(t, SeverityMedium.IsCriticalOrHigh())
	assert.False(t, SeverityInformational.IsCriticalOrHigh())
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{AppointmentStatusScheduled, false},
		{AppointmentStatusCanceled, true},
		{AppointmentStatusNoShow, false},
		{AppointmentStatusCompleted, false},
	}
	for _, tt := range tests {
		a := &Appointment{Status: tt.status}
		assert.Equal(t, tt.want, a.IsTerminal(), tt.status)
	}
}

func TestAppointmentBeforeCreateAssignsUUID(t *testing.T) {
	a := &Appointment{}
	require.NoError(t, a.BeforeCreate(nil))
	assert.Len(t, a.UUID, 36)

	fixed := &Appointment{UUID: "preassigned"}
	require.NoError(t, fixed.BeforeCreate(nil))
	assert.Equal(t, "preassigned", fixed.UUID)
}

func TestClientValidate(t *testing.T) {
	valid := &Client{Email: "jamie@example.com", Name: "Jamie", Status: CLIENT_STATUS_ACTIVE}
	assert.NoError(t, valid.Validate())

	noEmail := &Client{Status: CLIENT_STATUS_ACTIVE}
	assert.Error(t, noEmail.Validate())

	badStatus := &Client{Email: "jamie@example.com", Status: "paused"}
	assert.Error(t, badStatus.Validate())
}

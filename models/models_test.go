package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketRequest_Validate(t *testing.T) {
	valid := TicketRequest{
		UserID:    "user1",
		EventID:   "event1",
		TicketID:  "ticket1",
		PaymentID: "payment1",
	}
	assert.NoError(t, valid.Validate())

	tt := []struct {
		name    string
		mutate  func(*TicketRequest)
		wantErr string
	}{
		{"missing user", func(r *TicketRequest) { r.UserID = "" }, "missing userId"},
		{"missing event", func(r *TicketRequest) { r.EventID = "" }, "missing eventId"},
		{"missing ticket", func(r *TicketRequest) { r.TicketID = "" }, "missing ticketId"},
		{"missing payment", func(r *TicketRequest) { r.PaymentID = "" }, "missing paymentId"},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			err := req.Validate()
			require.Error(t, err)
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}

func TestTicketRequest_WireFormat(t *testing.T) {
	data, err := json.Marshal(TicketRequest{
		UserID:    "u1",
		EventID:   "e1",
		TicketID:  "t1",
		PaymentID: "p1",
	})
	require.NoError(t, err)

	var raw map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, map[string]string{
		"userId":    "u1",
		"eventId":   "e1",
		"ticketId":  "t1",
		"paymentId": "p1",
	}, raw)
}

func TestTicketStatusConstants(t *testing.T) {
	assert.Equal(t, "UNSOLD", TicketStatusUnsold)
	assert.Equal(t, "SOLD", TicketStatusSold)
	assert.Equal(t, "USED", TicketStatusUsed)

	assert.Equal(t, "PENDING", PaymentStatusPending)
	assert.Equal(t, "COMPLETED", PaymentStatusCompleted)
	assert.Equal(t, "FAILED", PaymentStatusFailed)
}

package planner

import (
	"testing"

	"voice-agent-workers/internal/conversation/entity"
	"voice-agent-workers/internal/conversation/intent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		intent   intent.Intent
		entities entity.Bag
		text     string
		want     []string
	}{
		{"order with number", intent.OrderInquiry, entity.Bag{"order_number": "ORD123456"}, "where is ORD123456", []string{ActionLookupOrder}},
		{"order keyword only", intent.OrderInquiry, entity.Bag{}, "Where is my ORDER?", []string{ActionLookupOrder}},
		{"order nothing to go on", intent.OrderInquiry, entity.Bag{}, "where is my package", nil},
		{"appointment with date", intent.Appointment, entity.Bag{"date": "march 3rd"}, "book march 3rd", []string{ActionScheduleAppointment}},
		{"appointment with time", intent.Appointment, entity.Bag{"time": "10:30 am"}, "book 10:30 am", []string{ActionScheduleAppointment}},
		{"appointment with service", intent.Appointment, entity.Bag{"service": "checkup"}, "book a checkup", []string{ActionScheduleAppointment}},
		{"appointment without signals", intent.Appointment, entity.Bag{"email": "a@b.io"}, "book something", nil},
		{"support", intent.Support, entity.Bag{}, "it is broken", []string{ActionCreateTicket}},
		{"information", intent.Information, entity.Bag{"name": "Maria"}, "what do you sell", nil},
		{"transfer", intent.Transfer, entity.Bag{}, "get me a human", []string{ActionTransferToHuman}},
		{"unknown intent", intent.Intent("billing"), entity.Bag{}, "refund", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.intent, tt.entities, tt.text)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, Names(got))
		})
	}
}

func TestPlan_CarriesEntityCopy(t *testing.T) {
	bag := entity.Bag{"order_number": "ORD123456", "email": "a@b.io"}

	got := Plan(intent.OrderInquiry, bag, "status of ORD123456")
	require.Len(t, got, 1)
	assert.Equal(t, map[string]interface{}{"order_number": "ORD123456", "email": "a@b.io"}, got[0].Parameters)

	got[0].Parameters["order_number"] = "CHANGED"
	assert.Equal(t, "ORD123456", bag["order_number"])
}

func TestPlan_Deterministic(t *testing.T) {
	bag := entity.Bag{"date": "2024-12-25", "time": "2:00 pm"}

	first := Plan(intent.Appointment, bag, "book 2024-12-25 at 2:00 pm")
	second := Plan(intent.Appointment, bag, "book 2024-12-25 at 2:00 pm")
	assert.Equal(t, first, second)
}

// Package migrations defines the catalog and reservation collections. The
// builders are exported so tests can materialize the same schema on a fresh
// test app.
package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

func EventsCollection() *core.Collection {
	collection := core.NewBaseCollection("events")
	collection.Fields.Add(
		&core.TextField{Name: "name", Required: true},
		&core.TextField{Name: "description"},
		&core.TextField{Name: "venue"},
		&core.DateField{Name: "start_time"},
		&core.NumberField{Name: "total_capacity", Required: true, OnlyInt: true, Min: types.Pointer(1.0)},
		&core.SelectField{Name: "status", Values: []string{"draft", "published", "completed"}, MaxSelect: 1},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)
	return collection
}

func TicketTypesCollection(eventsID string) *core.Collection {
	collection := core.NewBaseCollection("ticket_types")
	collection.Fields.Add(
		&core.TextField{Name: "name", Required: true},
		&core.NumberField{Name: "price", Required: true, Min: types.Pointer(0.0)},
		&core.RelationField{Name: "event_id", Required: true, CollectionId: eventsID, MaxSelect: 1},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)
	return collection
}

func PaymentsCollection(usersID, eventsID string) *core.Collection {
	collection := core.NewBaseCollection("payments")
	collection.Fields.Add(
		&core.RelationField{Name: "user_id", Required: true, CollectionId: usersID, MaxSelect: 1},
		&core.RelationField{Name: "event_id", Required: true, CollectionId: eventsID, MaxSelect: 1},
		&core.NumberField{Name: "amount", Required: true, Min: types.Pointer(0.0)},
		&core.TextField{Name: "transaction_id"},
		&core.SelectField{Name: "payment_status", Required: true, Values: []string{"PENDING", "COMPLETED", "FAILED"}, MaxSelect: 1},
		&core.DateField{Name: "completed_at"},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)
	return collection
}

func TicketsCollection(eventsID, ticketTypesID, usersID, paymentsID string) *core.Collection {
	collection := core.NewBaseCollection("tickets")
	collection.Fields.Add(
		&core.RelationField{Name: "event_id", Required: true, CollectionId: eventsID, MaxSelect: 1},
		&core.RelationField{Name: "ticket_type_id", Required: true, CollectionId: ticketTypesID, MaxSelect: 1},
		&core.RelationField{Name: "user_id", CollectionId: usersID, MaxSelect: 1},
		&core.RelationField{Name: "payment_id", CollectionId: paymentsID, MaxSelect: 1},
		&core.TextField{Name: "seat_number"},
		&core.SelectField{Name: "status", Required: true, Values: []string{"UNSOLD", "SOLD", "USED"}, MaxSelect: 1},
		&core.TextField{Name: "qr_code"},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)
	collection.AddIndex("idx_tickets_qr_code", true, "qr_code", "qr_code != ''")
	return collection
}

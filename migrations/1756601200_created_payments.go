package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		return app.Save(PaymentsCollection(users.Id, events.Id))
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("payments")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}

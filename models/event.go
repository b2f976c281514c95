package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

type Event struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Venue         string    `json:"venue"`
	StartTime     time.Time `json:"start_time"`
	TotalCapacity int       `json:"total_capacity"`
	Status        string    `json:"status"` // draft, published, completed
}

func EventFromRecord(r *core.Record) *Event {
	return &Event{
		ID:            r.Id,
		Name:          r.GetString("name"),
		Description:   r.GetString("description"),
		Venue:         r.GetString("venue"),
		StartTime:     r.GetDateTime("start_time").Time(),
		TotalCapacity: r.GetInt("total_capacity"),
		Status:        r.GetString("status"),
	}
}

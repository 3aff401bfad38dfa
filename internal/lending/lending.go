// Package lending implements the kit catalog and reservations on top of
// an interchangeable content backend.
package lending

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
)

// ErrNotFound is returned when a kit or text does not exist
var ErrNotFound = errors.New("not found")

// Reservation statuses
const (
	StatusPending   = "pending"
	StatusPassed    = "passed"
	StatusInUse     = "in-use"
	StatusException = "exception"
	StatusReturned  = "returned"
	StatusRejected  = "rejected"
)

// ActiveStatuses are the reservation statuses that block a kit
var ActiveStatuses = []string{StatusPassed, StatusInUse, StatusException}

// Document is rich content as the backend delivers it, one element per
// block, for a client-side renderer.
type Document []json.RawMessage

// KitOverview is a kit as shown in the catalog
type KitOverview struct {
	ID           string   `json:"_id" notion:"id"`
	Serial       int      `json:"serial" notion:"Serial"`
	Name         string   `json:"name" notion:"Name"`
	Description  string   `json:"description" notion:"Description"`
	Type         string   `json:"type" notion:"Type"`
	Tags         []string `json:"tags" notion:"Tags"`
	Status       string   `json:"status" notion:"Status"`
	Cover        string   `json:"cover" notion:"Cover__img"`
	AvailableNow bool     `json:"availableNow" notion:"-"`
}

// Kit is a kit with its full description
type Kit struct {
	KitOverview `notion:",squash"`
	Images      []string `json:"images" notion:"Images__img"`
	Rules       string   `json:"rules" notion:"Rules"`
	Content     Document `json:"content" notion:"-"`
}

// ReservationSlot is the booked date range of a reservation, as ISO dates
type ReservationSlot struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// KitDetail is a kit with the slots that are already booked
type KitDetail struct {
	Kit          Kit               `json:"kit"`
	Reservations []ReservationSlot `json:"reservations"`
}

// Reservation is a booking request
type Reservation struct {
	KitID     string `json:"kitId"`
	KitName   string `json:"kitName"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Wechat    string `json:"wechat"`
	Project   string `json:"project"`
	Usage     string `json:"usage"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Slot returns the date range of the reservation
func (r Reservation) Slot() ReservationSlot {
	return ReservationSlot{StartDate: r.StartDate, EndDate: r.EndDate}
}

// Catalog is a content backend holding kits, reservations and texts.
// Dates are ISO 8601 calendar dates (YYYY-MM-DD).
type Catalog interface {
	// Kits lists every published kit ordered by serial number
	Kits(ctx context.Context, today string) ([]KitOverview, error)
	// Kit returns one kit with its active reservations
	Kit(ctx context.Context, id, today string) (*KitDetail, error)
	// KitBySerial is Kit addressed by serial number
	KitBySerial(ctx context.Context, serial int, today string) (*KitDetail, error)
	// Reserve stores a pending reservation and returns its id
	Reserve(ctx context.Context, r Reservation) (string, error)
	// Text returns a named text page such as "manual" or "dev"
	Text(ctx context.Context, name string) (Document, error)
	// Settings returns the site settings as plain strings
	Settings(ctx context.Context) (map[string]string, error)
}

// IsActive reports whether a reservation status blocks the kit
func IsActive(status string) bool {
	return slices.Contains(ActiveStatuses, status)
}

// day truncates an ISO date or datetime to its calendar date
func day(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// Covers reports whether the slot includes the given day. A slot without
// an end date covers its start day only.
func (s ReservationSlot) Covers(today string) bool {
	start, end := day(s.StartDate), day(s.EndDate)
	if end == "" {
		end = start
	}
	t := day(today)
	return start != "" && start <= t && t <= end
}

// AvailableOn reports whether none of the active slots covers today
func AvailableOn(slots []ReservationSlot, today string) bool {
	for _, slot := range slots {
		if slot.Covers(today) {
			return false
		}
	}
	return true
}

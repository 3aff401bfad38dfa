package lending

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotCovers(t *testing.T) {
	tests := []struct {
		name  string
		slot  ReservationSlot
		today string
		want  bool
	}{
		{"inside", ReservationSlot{"2024-05-01", "2024-05-10"}, "2024-05-05", true},
		{"first day", ReservationSlot{"2024-05-01", "2024-05-10"}, "2024-05-01", true},
		{"last day", ReservationSlot{"2024-05-01", "2024-05-10"}, "2024-05-10", true},
		{"before", ReservationSlot{"2024-05-01", "2024-05-10"}, "2024-04-30", false},
		{"after", ReservationSlot{"2024-05-01", "2024-05-10"}, "2024-05-11", false},
		{"datetime bounds", ReservationSlot{"2024-05-01T09:00:00+08:00", "2024-05-02T18:00:00+08:00"}, "2024-05-02", true},
		{"open end", ReservationSlot{"2024-05-01", ""}, "2024-05-01", true},
		{"open end next day", ReservationSlot{"2024-05-01", ""}, "2024-05-02", false},
		{"empty", ReservationSlot{}, "2024-05-01", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.slot.Covers(tt.today))
		})
	}
}

func TestAvailableOn(t *testing.T) {
	slots := []ReservationSlot{{"2024-05-01", "2024-05-03"}, {"2024-06-01", "2024-06-03"}}
	assert.False(t, AvailableOn(slots, "2024-06-02"))
	assert.True(t, AvailableOn(slots, "2024-05-20"))
	assert.True(t, AvailableOn(nil, "2024-05-20"))
}

func TestIsActive(t *testing.T) {
	for _, status := range []string{StatusPassed, StatusInUse, StatusException} {
		assert.True(t, IsActive(status), status)
	}
	for _, status := range []string{StatusPending, StatusReturned, StatusRejected, ""} {
		assert.False(t, IsActive(status), status)
	}
}

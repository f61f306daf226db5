package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxOverlaps(t *testing.T) {
	base := BoundingBox{X: 10, Y: 10, Width: 10, Height: 10}

	tests := []struct {
		name     string
		other    BoundingBox
		expected bool
	}{
		{name: "identical", other: base, expected: true},
		{name: "partial overlap", other: BoundingBox{X: 14, Y: 14, Width: 10, Height: 10}, expected: true},
		{name: "contained", other: BoundingBox{X: 10, Y: 10, Width: 2, Height: 2}, expected: true},
		{name: "containing", other: BoundingBox{X: 10, Y: 10, Width: 50, Height: 50}, expected: true},
		{name: "touching right edge", other: BoundingBox{X: 20, Y: 10, Width: 10, Height: 10}, expected: false},
		{name: "touching bottom edge", other: BoundingBox{X: 10, Y: 20, Width: 10, Height: 10}, expected: false},
		{name: "touching corner", other: BoundingBox{X: 20, Y: 20, Width: 10, Height: 10}, expected: false},
		{name: "disjoint on x only", other: BoundingBox{X: 40, Y: 10, Width: 10, Height: 10}, expected: false},
		{name: "disjoint on y only", other: BoundingBox{X: 10, Y: -20, Width: 10, Height: 10}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, base.Overlaps(tt.other))
			assert.Equal(t, tt.expected, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{X: 10, Y: 10, Width: 4, Height: 4}

	assert.True(t, box.Contains(10, 10))
	assert.True(t, box.Contains(11.9, 8.1))
	assert.False(t, box.Contains(12, 10), "right edge is outside")
	assert.False(t, box.Contains(10, 8), "top edge is outside")
	assert.False(t, box.Contains(0, 0))
}

func TestConversationAreaOccupants(t *testing.T) {
	area := &ConversationArea{Label: "lounge", Topic: "chat"}

	assert.True(t, area.IsEmpty())
	assert.True(t, area.AddOccupant("p1"))
	assert.True(t, area.AddOccupant("p2"))
	assert.False(t, area.AddOccupant("p1"), "duplicates are rejected")
	assert.Equal(t, []PlayerID{"p1", "p2"}, area.OccupantsByID)

	assert.True(t, area.RemoveOccupant("p1"))
	assert.False(t, area.RemoveOccupant("p1"))
	assert.Equal(t, []PlayerID{"p2"}, area.OccupantsByID)

	snap := area.Snapshot()
	area.AddOccupant("p3")
	assert.Equal(t, []PlayerID{"p2"}, snap.OccupantsByID, "snapshot is detached")
}

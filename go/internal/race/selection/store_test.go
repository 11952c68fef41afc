package selection

import (
	"testing"

	"github.com/mcdev12/racer/go/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestStoreStartsEmpty(t *testing.T) {
	s := NewStore()
	sel := s.Selection()
	assert.False(t, sel.HasTrack())
	assert.False(t, sel.HasRacer())
	assert.False(t, sel.Complete())
}

func TestStoreReplacesPreviousChoice(t *testing.T) {
	s := NewStore()
	s.SetTrack(1, "Track 1")
	s.SetTrack(2, "Track 2")
	s.SetRacer(4, "Racer 4")

	assert.Equal(t, models.Selection{TrackID: 2, TrackName: "Track 2", RacerID: 4, RacerName: "Racer 4"}, s.Selection())
	assert.True(t, s.Selection().Complete())
}

func TestStoreSelectionIsCopy(t *testing.T) {
	s := NewStore()
	s.SetTrack(1, "Track 1")

	sel := s.Selection()
	sel.TrackID = 99
	assert.Equal(t, 1, s.Selection().TrackID)
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.SetTrack(1, "Track 1")
	s.SetRacer(1, "Racer 1")
	s.Clear()
	assert.Equal(t, models.Selection{}, s.Selection())
}

func TestSelectionCompleteness(t *testing.T) {
	tests := []struct {
		name string
		sel  models.Selection
		want bool
	}{
		{"empty", models.Selection{}, false},
		{"track only", models.Selection{TrackID: 1}, false},
		{"racer only", models.Selection{RacerID: 1}, false},
		{"negative ids", models.Selection{TrackID: -1, RacerID: -1}, false},
		{"both", models.Selection{TrackID: 1, RacerID: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sel.Complete())
		})
	}
}

package models

// Selection is the user's current track and racer choice.
// An ID of zero or less means the field is unset.
type Selection struct {
	TrackID   int
	TrackName string
	RacerID   int
	RacerName string
}

// HasTrack reports whether a track has been chosen
func (s Selection) HasTrack() bool {
	return s.TrackID > 0
}

// HasRacer reports whether a racer has been chosen
func (s Selection) HasRacer() bool {
	return s.RacerID > 0
}

// Complete reports whether both a track and a racer are chosen
func (s Selection) Complete() bool {
	return s.HasTrack() && s.HasRacer()
}

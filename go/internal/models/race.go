package models

// RaceStatus is the lifecycle status of a race session
type RaceStatus string

const (
	// RaceStatusPending is a created race that has not been started yet.
	// The race service reports it as "unstarted".
	RaceStatusPending RaceStatus = "unstarted"
	// RaceStatusCountdown is only ever set locally while the countdown runs
	RaceStatusCountdown  RaceStatus = "countdown"
	RaceStatusInProgress RaceStatus = "in-progress"
	RaceStatusFinished   RaceStatus = "finished"
)

// IsTerminal reports whether no further updates are expected for the race
func (s RaceStatus) IsTerminal() bool {
	return s == RaceStatusFinished
}

// RaceSession is a race as known to the client
type RaceSession struct {
	ID        int        `json:"id"`
	TrackID   int        `json:"track_id"`
	Status    RaceStatus `json:"status"`
	Positions []Position `json:"positions"`
}

// Position is one racer's progress within a race snapshot
type Position struct {
	RacerID       int    `json:"id"`
	DriverName    string `json:"driver_name"`
	Segment       int    `json:"segment"`
	Speed         int    `json:"speed"`
	TopSpeed      int    `json:"top_speed"`
	Acceleration  int    `json:"acceleration"`
	Handling      int    `json:"handling"`
	FinalPosition int    `json:"final_position,omitempty"`
}

// Standing is a ranked, display-ready entry of a leaderboard
type Standing struct {
	Rank     int      `json:"rank"`
	Position Position `json:"position"`
	Self     bool     `json:"self"`
}

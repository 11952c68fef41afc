package models

// Track is a course offered by the race service
type Track struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Segments []int  `json:"segments,omitempty"`
}

// Racer is a car/driver that can be entered into a race
type Racer struct {
	ID           int    `json:"id"`
	DriverName   string `json:"driver_name"`
	TopSpeed     int    `json:"top_speed"`
	Acceleration int    `json:"acceleration"`
	Handling     int    `json:"handling"`
}

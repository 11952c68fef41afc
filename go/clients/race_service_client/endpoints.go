package race_service_client

const (
	// Base URL
	DefaultBaseURL = "http://localhost:3001"

	// API Endpoints
	TracksEndpoint    = "/api/tracks"
	CarsEndpoint      = "/api/cars"
	RacesEndpoint     = "/api/races"
	StartSuffix       = "/start"
	AccelerateSuffix  = "/accelerate"
	ContentTypeJSON   = "application/json"
	ContentTypeHeader = "Content-Type"
)

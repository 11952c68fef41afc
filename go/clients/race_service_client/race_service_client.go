package race_service_client

import (
	"github.com/mcdev12/racer/go/clients"
)

type RaceServiceClient struct {
	*clients.BaseClient
}

func NewRaceServiceClient(baseURL string) *RaceServiceClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := &RaceServiceClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader(ContentTypeHeader, ContentTypeJSON)

	return client
}

package schema

import "github.com/faciam-dev/redisboard/internal/inspect"

// Stats is the body of GET /v1/servers/{id}/stats.
type Stats struct {
	Server Server `json:"server"`
	Status string `json:"status"`
	inspect.ServerStats
}

// Databases is the body of GET /v1/servers/{id}/databases.
type Databases struct {
	Server  Server            `json:"server"`
	Filters map[string]string `json:"filters,omitempty"`
	inspect.Databases
}

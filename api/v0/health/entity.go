package health

// HealthStatus of a service. This status should be advertised by
// a service so that a health checker can know what action
// if any is required to keep the status on a Healthy state
type HealthStatus uint

const (
	// Healthy status means that the service is up and running
	// and can take incoming requests
	Healthy HealthStatus = 0

	// Unhealthy status for a service whose dependencies
	// cannot be reached
	Unhealthy HealthStatus = 2
)

// GetHealthResponse is the response to the health request
type GetHealthResponse struct {
	Health HealthStatus `json:"health"`

	// Dependencies holds the failure of each unreachable
	// dependency
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

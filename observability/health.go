package observability

import "context"

// HealthStatus represents the health state of a component or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the health of an individual component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// ServiceHealth describes the overall health of the service and the
// provider backends it fronts.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// NewServiceHealth creates a ServiceHealth starting in the up state.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Version: version, Status: HealthStatusUp}
}

// AddComponent records a component's health and degrades or downs the
// aggregate accordingly. A single down component degrades the service;
// all components down means the service is down.
func (s *ServiceHealth) AddComponent(h Health) {
	s.Components = append(s.Components, h)
	down := 0
	for _, c := range s.Components {
		if c.Status == HealthStatusDown {
			down++
		}
	}
	switch {
	case down == 0:
		s.Status = HealthStatusUp
	case down == len(s.Components):
		s.Status = HealthStatusDown
	default:
		s.Status = HealthStatusDegraded
	}
}

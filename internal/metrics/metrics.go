package metrics

import (
	"github.com/DataDog/datadog-go/v5/statsd"
)

const namespace = "wellness."

// Client is the subset of the DogStatsD client the services use.
type Client interface {
	Incr(name string, tags []string, rate float64) error
	Close() error
}

// New returns a DogStatsD client for addr, or a no-op client when addr is empty.
func New(addr string, environment string) (Client, error) {
	if addr == "" {
		return &statsd.NoOpClient{}, nil
	}
	return statsd.New(addr,
		statsd.WithNamespace(namespace),
		statsd.WithTags([]string{"env:" + environment}),
	)
}

// Noop is handy for tests and for components built without metrics.
func Noop() Client {
	return &statsd.NoOpClient{}
}

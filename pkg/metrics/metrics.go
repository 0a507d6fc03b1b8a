// pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demoapp_logins_total",
		Help: "Completed authorization-code exchanges.",
	})

	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "demoapp_token_refresh_total",
		Help: "Refresh-token grants by outcome.",
	}, []string{"outcome"})

	APICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "demoapp_api_calls_total",
		Help: "Demo calls against the accounting API by resource and outcome.",
	}, []string{"resource", "outcome"})
)

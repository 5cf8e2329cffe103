package viewstate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultError   = "error"
	resultStale   = "stale"
)

var fetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "viewstate_fetches_total",
		Help: "Completed list adapter fetches by list and result (success, error, stale)",
	},
	[]string{"list", "result"},
)

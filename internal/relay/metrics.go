package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindJob  = "job"
	kindTask = "task"

	resultOK    = "ok"
	resultError = "error"
)

// postedTotal — записи outbox, которые relay пытался опубликовать.
var postedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bender_relay_posted_total",
	Help: "Outbox records posted by the relay, by kind and result",
}, []string{"kind", "result"})

package mq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bender_mq_published_total",
		Help: "Messages published by bender-mq, by exchange and result",
	}, []string{"exchange", "result"})

	returnedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bender_mq_returned_total",
		Help: "Mandatory messages returned by the broker as unroutable",
	}, []string{"exchange"})

	declaredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bender_mq_declared_total",
		Help: "Topology declarations by object kind and result",
	}, []string{"op", "result"})
)

package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sql_engine",
		Name:      "queries_total",
		Help:      "Physical plans opened for execution.",
	})
	rowsEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sql_engine",
		Name:      "rows_emitted_total",
		Help:      "Rows returned to callers across all queries.",
	})
	executionErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sql_engine",
		Name:      "execution_errors_total",
		Help:      "Errors surfaced from Open or Next.",
	})
)

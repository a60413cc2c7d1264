package utilities

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics reúne as métricas Prometheus do processo, com prefixo "symples_".
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	MovesTotal     *prometheus.CounterVec
	RenumbersTotal prometheus.Counter
	RollbacksTotal prometheus.Counter

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	AIRequestsTotal *prometheus.CounterVec
}

// GetMetrics registra as métricas no registro padrão na primeira chamada.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "symples_http_requests_total",
					Help: "Total de requisições HTTP atendidas",
				},
				[]string{"method", "route", "status"},
			),
			RequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "symples_http_request_duration_seconds",
					Help:    "Duração das requisições HTTP",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
			MovesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "symples_task_moves_total",
					Help: "Movimentações de tarefas gravadas",
				},
				[]string{"kind"}, // "move" ou "reorder"
			),
			RenumbersTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "symples_task_renumbers_total",
				Help: "Grupos renumerados por falta de intervalo entre posições",
			}),
			RollbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "symples_board_rollbacks_total",
				Help: "Movimentos otimistas desfeitos no cliente",
			}),
			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "symples_cache_hits_total",
					Help: "Acertos de cache",
				},
				[]string{"cache"}, // "tasks" ou "calendar"
			),
			CacheMissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "symples_cache_misses_total",
					Help: "Faltas de cache",
				},
				[]string{"cache"},
			),
			AIRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "symples_ai_requests_total",
					Help: "Requisições de quick-add por resultado",
				},
				[]string{"result"}, // "model", "heuristic", "error"
			),
		}
	})
	return globalMetrics
}

package storage

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 网关的Prometheus指标
type Metrics struct {
	operations    *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// NewMetrics 创建指标并注册到reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "assetgate",
				Name:      "storage_operations_total",
				Help:      "Total number of storage operations by provider, operation and result.",
			},
			[]string{"provider", "operation", "result"},
		),
		invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "assetgate",
				Name:      "cache_invalidations_total",
				Help:      "Total number of CDN cache invalidation requests by target kind and result.",
			},
			[]string{"target", "result"},
		),
	}

	if err := reg.Register(m.operations); err != nil {
		return nil, err
	}
	if err := reg.Register(m.invalidations); err != nil {
		return nil, err
	}

	return m, nil
}

// ObserveOperation 记录一次存储操作
func (m *Metrics) ObserveOperation(provider Provider, operation string, ok bool) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(provider.String(), operation, resultLabel(ok)).Inc()
}

// ObserveInvalidation 记录一次缓存刷新，target为object或directory
func (m *Metrics) ObserveInvalidation(target string, ok bool) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(target, resultLabel(ok)).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

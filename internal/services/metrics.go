package services

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CodeMetrics counts issued and verified codes. A nil *CodeMetrics is a no-op.
type CodeMetrics struct {
	Generated *prometheus.CounterVec
	Verified  *prometheus.CounterVec
}

func NewCodeMetrics(reg prometheus.Registerer) (*CodeMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	generated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kyc",
		Subsystem: "codes",
		Name:      "generated_total",
		Help:      "Verification codes generated, partitioned by type and category.",
	}, []string{"type", "category"})
	verified := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kyc",
		Subsystem: "codes",
		Name:      "verified_total",
		Help:      "Verification attempts partitioned by result.",
	}, []string{"result"})

	var err error
	if generated, err = registerCounterVec(reg, generated); err != nil {
		return nil, err
	}
	if verified, err = registerCounterVec(reg, verified); err != nil {
		return nil, err
	}
	return &CodeMetrics{Generated: generated, Verified: verified}, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return nil, fmt.Errorf("register collector: %w", err)
	}
	return c, nil
}

func (m *CodeMetrics) generated(codeType, category string) {
	if m == nil {
		return
	}
	m.Generated.WithLabelValues(codeType, category).Inc()
}

func (m *CodeMetrics) verified(result string) {
	if m == nil {
		return
	}
	m.Verified.WithLabelValues(result).Inc()
}

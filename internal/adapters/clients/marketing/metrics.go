package marketing

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "marketing"
	metricsSubsystem = "api"

	LabelOperation = "operation"
	LabelKind      = "kind"

	KindNotFound  = "not_found"
	KindService   = "service"
	KindDecode    = "decode"
	KindTransport = "transport"
)

// Metrics counts marketing API failures by operation and error kind.
type Metrics struct {
	Errors *prometheus.CounterVec
}

// NewMetrics registers the marketing API collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Errors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "errors_total", Namespace: metricsNamespace, Subsystem: metricsSubsystem,
			Help: "Failed marketing API calls, by operation and kind (not_found, service, decode, transport).",
		}, []string{LabelOperation, LabelKind}),
	}
}

func (m *Metrics) observe(operation string, err error) {
	if m == nil || err == nil {
		return
	}

	m.Errors.WithLabelValues(operation, errorKind(err)).Inc()
}

// errorKind classifies err into one of the Kind* label values.
func errorKind(err error) string {
	var (
		notFound *NotFoundError
		svcErr   *ServiceError
		decErr   *DecodeError
	)

	switch {
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &svcErr):
		return KindService
	case errors.As(err, &decErr):
		return KindDecode
	default:
		return KindTransport
	}
}

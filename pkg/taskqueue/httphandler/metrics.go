package httphandler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	taskqueue "github.com/mutablelogic/go-taskqueue/pkg/taskqueue"
	prometheus "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	metricsTimeout = 30 * time.Second
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type metrics struct {
	manager    *taskqueue.Manager
	queueTasks *prometheus.Desc
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterMetricsHandler registers a HTTP handler for prometheus metrics
// on the provided router with the given path prefix. The manager must be non-nil.
func RegisterMetricsHandler(router *http.ServeMux, prefix string, manager *taskqueue.Manager) {
	if manager == nil {
		panic("manager is nil")
	}

	// Create a prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(&metrics{
		manager: manager,
		queueTasks: prometheus.NewDesc(
			"taskqueue_tasks",
			"Number of tasks in each queue by status",
			[]string{"queue", "type", "status"}, nil,
		),
	})
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Create a handler for metrics
	router.HandleFunc(joinPath(prefix, "metrics"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ServeHTTP(w, r)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	})
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - COLLECTOR

// Describe sends metric descriptors to the channel
func (m *metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.queueTasks
}

// Collect fetches metrics from the database and sends them to the channel
func (m *metrics) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
	defer cancel()

	if err := m.collectQueueStatuses(ctx, ch); err != nil {
		ch <- prometheus.NewInvalidMetric(m.queueTasks, err)
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (m *metrics) collectQueueStatuses(ctx context.Context, ch chan<- prometheus.Metric) error {
	// Get task counts by queue and status
	statuses, err := m.manager.StatusCounts(ctx)
	if err != nil {
		return err
	}

	// Send metrics for each queue/status combination
	for _, status := range statuses.Body {
		ch <- prometheus.MustNewConstMetric(
			m.queueTasks,
			prometheus.GaugeValue,
			float64(status.Count),
			strconv.FormatUint(status.Queue, 10),
			status.Type,
			status.Status,
		)
	}

	return nil
}

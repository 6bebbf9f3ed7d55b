package sync

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"mirrorsync/pkg/remote"
)

var (
	fetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirrorsync_fetch_total",
		Help: "Remote fetches by collection and outcome.",
	}, []string{"collection", "outcome"})

	fallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirrorsync_fallback_total",
		Help: "Reads answered from the local mirror after a remote failure.",
	}, []string{"collection"})

	droppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mirrorsync_records_dropped_total",
		Help: "Records dropped during sanitization.",
	}, []string{"collection"})
)

func init() {
	prometheus.MustRegister(fetchTotal, fallbackTotal, droppedTotal)
}

// outcome maps a fetch error onto a metric label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, remote.ErrTimeout):
		return "timeout"
	case errors.Is(err, remote.ErrNetwork):
		return "network"
	case errors.Is(err, remote.ErrDecode):
		return "decode"
	default:
		var se *remote.StatusError
		if errors.As(err, &se) {
			return "http_error"
		}
		return "error"
	}
}

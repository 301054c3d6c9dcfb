package middleware

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitledger_rpc_requests_total",
		Help: "Connect RPCs handled, by procedure and result code.",
	}, []string{"procedure", "code"})

	rpcDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splitledger_rpc_duration_seconds",
		Help:    "Connect RPC latency by procedure.",
		Buckets: prometheus.DefBuckets,
	}, []string{"procedure"})
)

// MetricsInterceptor records a request counter and latency histogram
// for every RPC.
func MetricsInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			rpcRequests.WithLabelValues(procedure, code).Inc()
			rpcDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())

			return resp, err
		}
	}
}

// Package prometheus exports pairci run metrics to Prometheus.
//
//	c := prometheus.NewCollector(prometheus.WithRegisterer(reg))
//	res, err := pairci.Run(ctx, h, nocc, eps, pairci.WithMetricsCollector(c))
package prometheus

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campusboard_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campusboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Chat

	ChatClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campusboard_chat_clients",
			Help: "Number of connected chat sockets",
		},
	)

	ChatMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campusboard_chat_messages_total",
			Help: "Total number of chat messages persisted and broadcast",
		},
	)

	ChatClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campusboard_chat_clients_dropped_total",
			Help: "Chat sockets dropped because their send buffer was full",
		},
	)
)

// MethodLabel maps a request method to its label value. Anything outside
// the standard methods becomes "other".
func MethodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
		http.MethodConnect, http.MethodTrace:
		return method
	}
	return "other"
}

// RecordHTTPRequest records one finished request. route is the mux
// pattern, not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	method = MethodLabel(method)
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

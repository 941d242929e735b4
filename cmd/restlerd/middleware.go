// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"net/http"
	"strconv"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

var requestCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "diffeo",
		Subsystem: "restler",
		Name:      "requests_total",
		Help:      "HTTP requests served, by method and status code",
	},
	[]string{
		"method",
		"code",
	},
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "diffeo",
		Subsystem: "restler",
		Name:      "request_duration_seconds",
		Help:      "Time taken to serve HTTP requests",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{
		"method",
	},
)

func init() {
	prometheus.MustRegister(requestCount)
	prometheus.MustRegister(requestDuration)
}

// requestLog is a negroni middleware that logs each request and
// records it in the request metrics.
type requestLog struct {
	Logger logrus.FieldLogger
	Clock  clock.Clock

	// Verbose logs every request at info level rather than only
	// failed ones.
	Verbose bool
}

func (l *requestLog) ServeHTTP(rw http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	start := l.Clock.Now()
	next(rw, req)
	elapsed := l.Clock.Now().Sub(start)

	status := http.StatusOK
	if res, ok := rw.(negroni.ResponseWriter); ok && res.Status() != 0 {
		status = res.Status()
	}
	requestCount.With(prometheus.Labels{
		"method": req.Method,
		"code":   strconv.Itoa(status),
	}).Inc()
	requestDuration.With(prometheus.Labels{
		"method": req.Method,
	}).Observe(elapsed.Seconds())

	entry := l.Logger.WithFields(logrus.Fields{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   status,
		"duration": elapsed,
		"remote":   req.RemoteAddr,
	})
	switch {
	case status >= http.StatusInternalServerError:
		entry.Error("request")
	case l.Verbose:
		entry.Info("request")
	default:
		entry.Debug("request")
	}
}

// newStack wraps an HTTP handler in the daemon's middleware: request
// logging and metrics, then panic recovery.
func newStack(h http.Handler, logger *logrus.Logger, clk clock.Clock, verbose bool) *negroni.Negroni {
	recovery := negroni.NewRecovery()
	recovery.Logger = logger
	recovery.PrintStack = false
	return negroni.New(
		&requestLog{Logger: logger, Clock: clk, Verbose: verbose},
		recovery,
		negroni.Wrap(h),
	)
}

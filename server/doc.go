// Package server exposes the weather dashboard and task list over HTTP.
//
// Routes under /api/ pass through auth.Middleware. Health probes and
// /metrics are mounted outside it.
package server

// Package server hosts the Fiber HTTP service and the middleware chain shared
// by every gateway route: panic recovery, request ids and the bounded worker
// pool. It also owns the shared upstream http.Client and the hop-by-hop header
// filter used when relaying Orthanc responses. Route registration lives in
// server/routes so handlers can depend on this package without cycles.
package server

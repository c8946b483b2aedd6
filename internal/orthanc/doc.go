// Package orthanc is the gateway's client for the Orthanc REST API. Every call
// carries the gateway's own basic-auth identity (never the caller's key) and
// its own timeout chosen by call class. Failures are reported as errors that
// match either ErrNotFound or ErrUnreachable through errors.Is so handlers can
// map them to 404 or 500 at the HTTP boundary.
package orthanc

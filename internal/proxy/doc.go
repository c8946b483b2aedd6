// Package proxy contains the gateway's request handlers. Handler serves the
// cached instance files, the study aggregation and the health probe; Forwarder
// relays arbitrary /api/orthanc/* calls. Orthanc failures are mapped to HTTP
// status codes here and nowhere else.
package proxy

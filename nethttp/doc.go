// Package nethttp runs an adapter.Module inside a net/http server.
//
// Middleware invokes the module at the point where a request URL has been
// mapped to a file under the document root and before the wrapped handler
// serves it. The callback may answer the request itself or return
// host.Continue, possibly after remapping the physical path, to let the
// wrapped handler run.
package nethttp

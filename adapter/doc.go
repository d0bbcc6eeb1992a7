// Package adapter connects a request callback to a host pipeline at the
// URL-to-physical-path mapping phase.
//
// For every notification the Module binds a Context over the host's
// request, response and mapping event, hands it to the Handler, and returns
// the Handler's disposition to the host. Through the Context the callback can:
//
//   - resolve request attributes by attr.ID or headers by name
//   - read the request entity in chunks
//   - stage and flush response body chunks
//   - set the status line, response headers and the mapped physical path
//
// A Context is valid only for the duration of the callback. All calls on it
// are synchronous and must come from the goroutine running the callback;
// calls made outside the callback are not checked.
package adapter

// Package hostbridge runs request callbacks at the URL-to-physical-path
// mapping stage of an HTTP server.
//
// A callback is written once against adapter.Context and runs unchanged on
// any server that implements the host interfaces. It can be native Go or a
// WebAssembly guest.
//
// # Architecture Overview
//
//	hostbridge/
//	├── host/        Interfaces a hosting server implements, and Disposition
//	├── attr/        Request attribute IDs and how each one is resolved
//	├── adapter/     Per-request Context, callback module and registration
//	├── handle/      Generic handle table for values crossing into a guest
//	├── guest/       WebAssembly callbacks on wazero with a pooled instance set
//	├── nethttp/     net/http host: middleware, CGI variables, file serving
//	├── metrics/     Prometheus collector fed by adapter lifecycle events
//	├── config/      YAML, .env and HOSTBRIDGE_* configuration
//	├── errors/      Structured error types with phase and kind
//	└── cmd/run/     Server binary with an optional terminal monitor
//
// # Quick Start
//
// Serve a Go callback in front of a static file handler:
//
//	mod, err := adapter.Register(adapter.HandlerFunc(func(c *adapter.Context) host.Disposition {
//	    if url, _ := c.Resolve(attr.URL); string(url) == "/ping" {
//	        c.SetStatus(200, "OK")
//	        c.WriteAndFlush([]byte("pong"), false)
//	        return host.FinishRequest
//	    }
//	    return host.Continue
//	}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", nethttp.Middleware(mod, nethttp.FileServer(), nethttp.Options{
//	    DocumentRoot: "./public",
//	}))
//
// Or load a guest module instead:
//
//	h, err := guest.Compile(ctx, wasmBytes, guest.WithPoolSize(8))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mod, err := adapter.Register(h)
//
// # Request Lifecycle
//
// For each notification the module acquires a Context, binds it to the
// host's request, response and event, runs the callback and disposes the
// Context. Contexts are pooled and must not be retained after the callback
// returns.
//
// Response bodies are staged with AppendChunk and handed to the host in one
// call by Flush. The response is finalized only when a flush with
// moreData=false is fully accepted.
//
// # Guest ABI
//
// A guest imports functions from the "hostbridge" module and exports
// "memory" and "handle_request" (i32) -> i32. Results carrying a length are
// packed as status<<32 | length. See package guest for the full list.
//
// # Error Handling
//
// All packages return *errors.Error values carrying the phase (resolve, read,
// write, status, ...) and kind (host_io, finalized, committed, ...) of the
// failure. Use errors.KindOf to branch on the kind.
package hostbridge

// Package guest runs request callbacks compiled to WebAssembly.
//
// A guest module imports its host functions from the "hostbridge" module and
// exports its linear memory as "memory" and the entry point
//
//	handle_request(h i32) -> i32
//
// which receives an opaque request handle and returns a host.Disposition.
// Every host function takes the handle first, followed by plain integers:
// offsets and lengths into guest memory, attribute ids, status codes and
// flags.
//
// Lookups that produce a value (resolve_attribute, read_header) write it to
// the guest buffer only when it fits within the given limit, but always
// return its full length, so a guest can grow its buffer and call again.
// Negative results are Status codes.
package guest

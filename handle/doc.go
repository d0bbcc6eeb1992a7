// Package handle maps opaque 32-bit handles to Go values.
//
// A guest callback cannot hold a Go pointer, so each in-flight request is
// published in a Table and the guest receives only its Handle. Handle 0 is
// never issued and always invalid. Slots are reused through a free list.
package handle

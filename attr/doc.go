// Package attr defines the closed set of request facets a callback can ask
// the adapter for, and how each one is resolved against the host.
//
// An ID is a stable integer. It crosses the guest ABI as a raw i32, so the
// numbering is append-only: new facets go at the end and existing values are
// never renumbered.
//
// Every ID has exactly one Strategy, fixed in a static table:
//
//	DirectAccessor       typed accessor on the request or mapping event
//	NamedVariableLookup  generic string-keyed server variable
//	TypedHeaderLookup    typed request header accessor
//	RawStructureField    field of the raw request line
//	Unsupported          permanently empty
//
// Lookups never fail. An unknown ID resolves to an Unsupported entry.
package attr

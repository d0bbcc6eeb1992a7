// Package host defines the capabilities the adapter needs from the web
// server that drives it.
//
// A host hands the adapter three borrowed objects per notification: the
// Request, the Response and the MapPathEvent that triggered the call. The
// adapter never retains them past the notification.
//
// Request exposes the three lookup mechanisms the attribute table selects
// between: typed accessors (Method, QueryString), a generic server variable
// lookup (ServerVariable) and a typed header accessor (Header), plus the raw
// request-line fields (Raw).
//
// The Disposition values mirror the host's notification status numbering
// because they cross the guest ABI as raw integers.
package host

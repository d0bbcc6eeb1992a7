package host

import "context"

// Disposition tells the host how to proceed after the notification.
type Disposition int32

const (
	Continue      Disposition = 1 // run the rest of the pipeline
	Pending       Disposition = 2 // the participant completes the request later
	FinishRequest Disposition = 3 // the response is done; skip the rest
)

func (d Disposition) String() string {
	switch d {
	case Continue:
		return "continue"
	case Pending:
		return "pending"
	case FinishRequest:
		return "finish"
	default:
		return "unknown"
	}
}

// RawRequest carries fields of the request line as received.
type RawRequest struct {
	Target     string // request-target before any rewrite, e.g. "/x?y=1"
	Version    string // e.g. "HTTP/1.1"
	RemoteAddr string // peer address, "host:port"
}

// Request is the inbound side of one notification.
type Request interface {
	// Context is cancelled when the host tears the request down.
	Context() context.Context

	Method() string

	// QueryString returns the raw query without the leading '?'.
	QueryString() (string, bool)

	// Header returns a request header. ok is false when the header is absent;
	// a present header may have an empty value.
	Header(name string) (value string, ok bool)

	// ServerVariable performs a generic named lookup ("REMOTE_ADDR").
	ServerVariable(name string) (value string, ok bool)

	Raw() RawRequest

	// ReadEntityBody reads up to len(p) bytes of the request entity. more is
	// false once the entity is exhausted, including on the call that returns
	// its final bytes.
	ReadEntityBody(p []byte) (n int, more bool, err error)
}

// Response is the outbound side of one notification.
type Response interface {
	// Clear drops buffered headers and body that have not been sent.
	Clear()

	SetStatus(code int, reason string) error

	// SetHeader sets a header value. replace=false appends a value.
	SetHeader(name, value string, replace bool) error

	// DeleteHeader removes every value of a header.
	DeleteHeader(name string) error

	// WriteEntityChunks hands chunks to the host. moreData=false marks the
	// final chunk of the body. sent may be less than the total length.
	WriteEntityChunks(chunks [][]byte, moreData bool) (sent int, err error)
}

// MapPathEvent is the URL-to-physical-path mapping notification.
type MapPathEvent interface {
	// URL is the request URL being mapped, including any query.
	URL() string

	PhysicalPath() string

	SetPhysicalPath(path string) error
}

package attr

import "strings"

// ID identifies a request facet.
type ID uint32

// Keep in sync with table below. Append only.
const (
	Method ID = iota
	Protocol
	URL
	QueryString
	PathInfo
	PathTranslated
	HTTPCacheControl
	HTTPDate
	HTTPAccept
	HTTPFrom
	HTTPHost
	HTTPIfModifiedSince
	HTTPReferer
	HTTPUserAgent
	HTTPContentEncoding
	ContentType
	ContentLength
	HTTPContentVersion
	HTTPDerivedFrom
	HTTPExpires
	HTTPTitle
	RemoteAddress
	RemoteHost
	ScriptName
	ServerPort
	Content
	HTTPConnection
	HTTPCookie
	HTTPAuthorization
	PhysicalPath
	RawURL
	HTTPVersion
	ServerName
	HTTPS
	HTTPAcceptEncoding
	HTTPAcceptLanguage

	// Count is the number of defined IDs.
	Count
)

// Strategy selects the host mechanism used to resolve an ID.
type Strategy uint8

const (
	Unsupported Strategy = iota
	DirectAccessor
	NamedVariableLookup
	TypedHeaderLookup
	RawStructureField
)

func (s Strategy) String() string {
	switch s {
	case DirectAccessor:
		return "direct"
	case NamedVariableLookup:
		return "variable"
	case TypedHeaderLookup:
		return "header"
	case RawStructureField:
		return "raw"
	default:
		return "unsupported"
	}
}

// Field names a member of the raw request structure.
type Field uint8

const (
	FieldNone Field = iota
	FieldTarget
	FieldVersion
)

// Entry is the static resolution rule for one ID.
type Entry struct {
	Name     string // stable lower-case name
	Variable string // canonical server variable name
	Header   string // header name for TypedHeaderLookup
	ID       ID
	Strategy Strategy
	Field    Field
}

var table = [...]Entry{ // indexed by ID
	{ID: Method, Name: "method", Strategy: DirectAccessor, Variable: "REQUEST_METHOD"},
	{ID: Protocol, Name: "protocol", Strategy: NamedVariableLookup, Variable: "SERVER_PROTOCOL"},
	{ID: URL, Name: "url", Strategy: DirectAccessor, Variable: "URL"},
	{ID: QueryString, Name: "query_string", Strategy: DirectAccessor, Variable: "QUERY_STRING"},
	{ID: PathInfo, Name: "path_info", Strategy: NamedVariableLookup, Variable: "PATH_INFO"},
	{ID: PathTranslated, Name: "path_translated", Strategy: NamedVariableLookup, Variable: "PATH_TRANSLATED"},
	{ID: HTTPCacheControl, Name: "http_cache_control", Strategy: NamedVariableLookup, Variable: "HTTP_CACHE_CONTROL"},
	{ID: HTTPDate, Name: "http_date", Strategy: NamedVariableLookup, Variable: "HTTP_DATE"},
	{ID: HTTPAccept, Name: "http_accept", Strategy: NamedVariableLookup, Variable: "HTTP_ACCEPT"},
	{ID: HTTPFrom, Name: "http_from", Strategy: NamedVariableLookup, Variable: "HTTP_FROM"},
	{ID: HTTPHost, Name: "http_host", Strategy: NamedVariableLookup, Variable: "HTTP_HOST"},
	{ID: HTTPIfModifiedSince, Name: "http_if_modified_since", Strategy: NamedVariableLookup, Variable: "HTTP_IF_MODIFIED_SINCE"},
	{ID: HTTPReferer, Name: "http_referer", Strategy: NamedVariableLookup, Variable: "HTTP_REFERER"},
	{ID: HTTPUserAgent, Name: "http_user_agent", Strategy: NamedVariableLookup, Variable: "HTTP_USER_AGENT"},
	{ID: HTTPContentEncoding, Name: "http_content_encoding", Strategy: NamedVariableLookup, Variable: "HTTP_CONTENT_ENCODING"},
	{ID: ContentType, Name: "content_type", Strategy: TypedHeaderLookup, Variable: "CONTENT_TYPE", Header: "Content-Type"},
	{ID: ContentLength, Name: "content_length", Strategy: TypedHeaderLookup, Variable: "CONTENT_LENGTH", Header: "Content-Length"},
	{ID: HTTPContentVersion, Name: "http_content_version", Strategy: NamedVariableLookup, Variable: "HTTP_CONTENT_VERSION"},
	{ID: HTTPDerivedFrom, Name: "http_derived_from", Strategy: NamedVariableLookup, Variable: "HTTP_DERIVED_FROM"},
	{ID: HTTPExpires, Name: "http_expires", Strategy: NamedVariableLookup, Variable: "HTTP_EXPIRES"},
	{ID: HTTPTitle, Name: "http_title", Strategy: NamedVariableLookup, Variable: "HTTP_TITLE"},
	{ID: RemoteAddress, Name: "remote_addr", Strategy: NamedVariableLookup, Variable: "REMOTE_ADDR"},
	{ID: RemoteHost, Name: "remote_host", Strategy: NamedVariableLookup, Variable: "REMOTE_HOST"},
	{ID: ScriptName, Name: "script_name", Strategy: NamedVariableLookup, Variable: "SCRIPT_NAME"},
	{ID: ServerPort, Name: "server_port", Strategy: NamedVariableLookup, Variable: "SERVER_PORT"},
	{ID: Content, Name: "content", Strategy: Unsupported},
	{ID: HTTPConnection, Name: "http_connection", Strategy: NamedVariableLookup, Variable: "HTTP_CONNECTION"},
	{ID: HTTPCookie, Name: "http_cookie", Strategy: TypedHeaderLookup, Variable: "HTTP_COOKIE", Header: "Cookie"},
	{ID: HTTPAuthorization, Name: "http_authorization", Strategy: NamedVariableLookup, Variable: "HTTP_AUTHORIZATION"},
	{ID: PhysicalPath, Name: "physical_path", Strategy: DirectAccessor},
	{ID: RawURL, Name: "raw_url", Strategy: RawStructureField, Field: FieldTarget},
	{ID: HTTPVersion, Name: "http_version", Strategy: RawStructureField, Field: FieldVersion},
	{ID: ServerName, Name: "server_name", Strategy: NamedVariableLookup, Variable: "SERVER_NAME"},
	{ID: HTTPS, Name: "https", Strategy: NamedVariableLookup, Variable: "HTTPS"},
	{ID: HTTPAcceptEncoding, Name: "http_accept_encoding", Strategy: NamedVariableLookup, Variable: "HTTP_ACCEPT_ENCODING"},
	{ID: HTTPAcceptLanguage, Name: "http_accept_language", Strategy: NamedVariableLookup, Variable: "HTTP_ACCEPT_LANGUAGE"},
}

// a compile-time check that table covers every ID
var _ [len(table)]struct{} = [Count]struct{}{}

var byName = func() map[string]ID {
	m := make(map[string]ID, 2*len(table))
	for _, e := range table {
		m[e.Name] = e.ID
		if e.Variable != "" {
			m[strings.ToLower(e.Variable)] = e.ID
		}
	}
	return m
}()

// Lookup returns the resolution rule for id.
func Lookup(id ID) Entry {
	if id >= Count {
		return Entry{ID: id, Name: "unknown", Strategy: Unsupported}
	}
	return table[id]
}

// Parse maps an ID name ("query_string") or server variable name
// ("QUERY_STRING") to its ID. Matching is case-insensitive.
func Parse(name string) (ID, bool) {
	id, ok := byName[strings.ToLower(name)]
	return id, ok
}

// All returns every defined entry in ID order.
func All() []Entry {
	out := make([]Entry, len(table))
	copy(out, table[:])
	return out
}

func (id ID) String() string {
	return Lookup(id).Name
}

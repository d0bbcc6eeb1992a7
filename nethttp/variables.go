package nethttp

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// CGI server variable names, as produced by FastCGI gateways.
const (
	varContentLength  = "CONTENT_LENGTH"
	varContentType    = "CONTENT_TYPE"
	varDocumentRoot   = "DOCUMENT_ROOT"
	varHTTPPrefix     = "HTTP_"
	varHTTPS          = "HTTPS"
	varPathInfo       = "PATH_INFO"
	varPathTranslated = "PATH_TRANSLATED"
	varQueryString    = "QUERY_STRING"
	varRemoteAddr     = "REMOTE_ADDR"
	varRemoteHost     = "REMOTE_HOST"
	varRemotePort     = "REMOTE_PORT"
	varRequestMethod  = "REQUEST_METHOD"
	varRequestScheme  = "REQUEST_SCHEME"
	varRequestURI     = "REQUEST_URI"
	varScriptName     = "SCRIPT_NAME"
	varServerName     = "SERVER_NAME"
	varServerPort     = "SERVER_PORT"
	varServerProtocol = "SERVER_PROTOCOL"
	varURL            = "URL"
)

// variable computes a server variable for r. ok is false for unknown names
// and absent headers.
func (q *request) variable(name string) (string, bool) {
	r := q.r
	switch name {
	case varRequestMethod:
		return r.Method, true
	case varURL, varPathInfo, varScriptName:
		return r.URL.Path, true
	case varQueryString:
		return r.URL.RawQuery, true
	case varRequestURI:
		return r.RequestURI, true
	case varPathTranslated:
		return q.ev.physical, q.ev.physical != ""
	case varDocumentRoot:
		return q.opts.DocumentRoot, q.opts.DocumentRoot != ""
	case varServerProtocol:
		return r.Proto, true
	case varRemoteAddr, varRemoteHost:
		h, _ := splitHostPort(r.RemoteAddr)
		return h, h != ""
	case varRemotePort:
		_, p := splitHostPort(r.RemoteAddr)
		return p, p != ""
	case varServerName:
		if q.opts.ServerName != "" {
			return q.opts.ServerName, true
		}
		h, _ := splitHostPort(r.Host)
		return h, h != ""
	case varServerPort:
		return serverPort(r), true
	case varHTTPS:
		if r.TLS != nil {
			return "on", true
		}
		return "off", true
	case varRequestScheme:
		if r.TLS != nil {
			return "https", true
		}
		return "http", true
	case varContentType:
		return q.Header("Content-Type")
	case varContentLength:
		if r.ContentLength > 0 {
			return strconv.FormatInt(r.ContentLength, 10), true
		}
		return q.Header("Content-Length")
	}

	if strings.HasPrefix(name, varHTTPPrefix) {
		return q.Header(headerName(name[len(varHTTPPrefix):]))
	}
	return "", false
}

// headerName turns USER_AGENT into User-Agent.
func headerName(v string) string {
	return http.CanonicalHeaderKey(strings.ReplaceAll(strings.ToLower(v), "_", "-"))
}

func splitHostPort(addr string) (host, port string) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, ""
	}
	return h, p
}

func serverPort(r *http.Request) string {
	if la, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
		if _, p := splitHostPort(la.String()); p != "" {
			return p
		}
	}
	if _, p := splitHostPort(r.Host); p != "" {
		return p
	}
	if r.TLS != nil {
		return "443"
	}
	return "80"
}

package nethttp

import (
	"net/http"
	"strconv"

	"github.com/wippyai/hostbridge/errors"
	"github.com/wippyai/hostbridge/host"
)

// response stages the status line and headers until the first body write.
// net/http derives the reason phrase from the code, so a custom reason is
// kept but never sent.
type response struct {
	w         http.ResponseWriter
	header    http.Header
	reason    string
	status    int
	written   int64
	committed bool
	finalized bool
}

var _ host.Response = (*response)(nil)

func newResponse(w http.ResponseWriter) *response {
	return &response{
		w:      w,
		header: make(http.Header),
		status: http.StatusOK,
		reason: http.StatusText(http.StatusOK),
	}
}

func (s *response) Clear() {
	if s.committed {
		return
	}
	s.header = make(http.Header)
}

func (s *response) SetStatus(code int, reason string) error {
	if s.committed {
		return errors.Committed(errors.PhaseStatus, "status")
	}
	s.status, s.reason = code, reason
	return nil
}

func (s *response) SetHeader(name, value string, replace bool) error {
	if s.committed {
		return errors.Committed(errors.PhaseHeader, name)
	}
	if replace {
		s.header.Set(name, value)
	} else {
		s.header.Add(name, value)
	}
	return nil
}

func (s *response) DeleteHeader(name string) error {
	if s.committed {
		return errors.Committed(errors.PhaseHeader, name)
	}
	s.header.Del(name)
	return nil
}

// WriteEntityChunks commits the staged head on first use. A first call with
// moreData=false carries the whole body and gets a Content-Length; otherwise
// each call is flushed to the client.
func (s *response) WriteEntityChunks(chunks [][]byte, moreData bool) (int, error) {
	if s.finalized {
		return 0, errors.Finalized(errors.PhaseFlush)
	}
	if !s.committed {
		if !moreData {
			total := 0
			for _, c := range chunks {
				total += len(c)
			}
			s.header.Set("Content-Length", strconv.Itoa(total))
		}
		s.commit()
	}

	sent := 0
	for _, c := range chunks {
		n, err := s.w.Write(c)
		sent += n
		s.written += int64(n)
		if err != nil {
			return sent, err
		}
	}

	if moreData {
		if f, ok := s.w.(http.Flusher); ok {
			f.Flush()
		}
	} else {
		s.finalized = true
	}
	return sent, nil
}

// commit sends the staged status and headers.
func (s *response) commit() {
	if s.committed {
		return
	}
	s.committed = true
	dst := s.w.Header()
	for k, vs := range s.header {
		dst[k] = vs
	}
	s.w.WriteHeader(s.status)
}

// applyHeaders copies staged headers to the writer without committing, for
// requests passed on to the next handler.
func (s *response) applyHeaders() {
	if s.committed {
		return
	}
	dst := s.w.Header()
	for k, vs := range s.header {
		dst[k] = vs
	}
}

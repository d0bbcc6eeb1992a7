package adapter

import (
	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/errors"
)

// ReadBody reads the next part of the request entity into p. more is false
// on the call that returns the final bytes and on every call after that,
// which then returns 0 bytes and no error. Host failures are returned as
// errors.KindHostIO and are not retried.
func (c *Context) ReadBody(p []byte) (n int, more bool, err error) {
	if c.bodyDone {
		return 0, false, nil
	}
	if len(p) == 0 {
		return 0, true, nil
	}

	n, more, err = c.req.ReadEntityBody(p)
	if err != nil {
		c.log.Debug("entity read failed", zap.Error(err))
		return n, false, errors.HostIO(errors.PhaseRead, err)
	}
	if !more {
		c.bodyDone = true
	}
	if n > 0 {
		c.notify(Event{Type: EventBodyRead, Bytes: n})
	}
	return n, more, nil
}

// AppendChunk stages a copy of p for the next Flush. p may be reused as soon
// as AppendChunk returns.
func (c *Context) AppendChunk(p []byte) error {
	if c.finalized {
		return errors.Finalized(errors.PhaseWrite)
	}
	if len(p) == 0 {
		return nil
	}
	c.stage = append(c.stage, p...)
	c.cuts = append(c.cuts, len(c.stage))
	return nil
}

// Staged reports the number of bytes waiting for Flush.
func (c *Context) Staged() int { return len(c.stage) }

// Flush hands every staged chunk to the host. moreData=false marks the end
// of the response body.
//
// sent is the number of bytes the host accepted and completed reports whether
// that was all of them. Staging is emptied either way; a caller that sees
// completed=false resends the unaccepted tail. The response is finalized only
// when moreData is false and every byte was accepted.
func (c *Context) Flush(moreData bool) (sent int, completed bool, err error) {
	if c.finalized {
		return 0, false, errors.Finalized(errors.PhaseFlush)
	}

	total := len(c.stage)
	start := 0
	for _, end := range c.cuts {
		c.chunks = append(c.chunks, c.stage[start:end])
		start = end
	}

	sent, err = c.resp.WriteEntityChunks(c.chunks, moreData)
	c.resetStage()
	if err != nil {
		if errors.KindOf(err) == errors.KindFinalized {
			c.finalized = true
			return sent, false, err
		}
		return sent, false, errors.HostIO(errors.PhaseFlush, err)
	}

	completed = sent == total
	if !moreData && completed {
		c.finalized = true
	}
	c.notify(Event{Type: EventChunkFlushed, Bytes: sent})
	return sent, completed, nil
}

// WriteAndFlush stages p and flushes immediately. It returns the number of
// bytes accepted by the host, counting anything staged before the call.
func (c *Context) WriteAndFlush(p []byte, moreData bool) (int, error) {
	if err := c.AppendChunk(p); err != nil {
		return 0, err
	}
	sent, _, err := c.Flush(moreData)
	return sent, err
}

// Finalized reports whether the response body has been completed.
func (c *Context) Finalized() bool { return c.finalized }

func (c *Context) resetStage() {
	c.stage = c.stage[:0]
	c.cuts = c.cuts[:0]
	for i := range c.chunks {
		c.chunks[i] = nil
	}
	c.chunks = c.chunks[:0]
}

package adapter

import (
	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/errors"
)

// SetStatus discards everything prepared for the response so far (staged
// chunks, headers and buffered body) and sets the status line. Calling it
// again replaces the previous status and drops headers set in between.
func (c *Context) SetStatus(code int, reason string) error {
	if code < 100 || code > 999 {
		return errors.New(errors.PhaseStatus, errors.KindInvalidInput).
			Value(code).
			Detail("status code %d out of range", code).
			Build()
	}

	c.resetStage()
	c.resp.Clear()
	if err := c.resp.SetStatus(code, reason); err != nil {
		return hostErr(errors.PhaseStatus, err)
	}
	c.log.Debug("status set", zap.Int("status", code))
	return nil
}

// SetHeader sets a response header, replacing any earlier value of the same
// name. An empty value removes the header.
func (c *Context) SetHeader(name, value string) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseHeader, "empty header name")
	}
	if value == "" {
		if err := c.resp.DeleteHeader(name); err != nil {
			return hostErr(errors.PhaseHeader, err)
		}
		return nil
	}
	if err := c.resp.SetHeader(name, value, true); err != nil {
		return hostErr(errors.PhaseHeader, err)
	}
	return nil
}

// SetPhysicalPath remaps the file the host serves once the callback returns
// host.Continue.
func (c *Context) SetPhysicalPath(path string) error {
	if path == "" {
		return errors.InvalidInput(errors.PhaseMapPath, "empty physical path")
	}
	if err := c.ev.SetPhysicalPath(path); err != nil {
		return hostErr(errors.PhaseMapPath, err)
	}
	return nil
}

// hostErr passes structured errors through and wraps the rest as host I/O.
func hostErr(phase errors.Phase, err error) error {
	if errors.KindOf(err) != "" {
		return err
	}
	return errors.HostIO(phase, err)
}

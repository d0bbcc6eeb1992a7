package adapter

import (
	"github.com/wippyai/hostbridge/attr"
)

// Resolve returns the value of a request attribute. ok is false when the
// attribute is absent, empty, unknown or unsupported. Resolve never fails.
func (c *Context) Resolve(id attr.ID) ([]byte, bool) {
	v, ok := c.resolve(attr.Lookup(id))
	if !ok {
		c.notify(Event{Type: EventResolveMiss, Attr: id})
		return nil, false
	}
	return []byte(v), true
}

func (c *Context) resolve(e attr.Entry) (string, bool) {
	switch e.Strategy {
	case attr.DirectAccessor:
		return nonEmpty(c.direct(e.ID))
	case attr.NamedVariableLookup:
		return nonEmpty(c.req.ServerVariable(e.Variable))
	case attr.TypedHeaderLookup:
		return nonEmpty(c.req.Header(e.Header))
	case attr.RawStructureField:
		raw := c.req.Raw()
		switch e.Field {
		case attr.FieldTarget:
			return nonEmpty(raw.Target, true)
		case attr.FieldVersion:
			return nonEmpty(raw.Version, true)
		}
	}
	return "", false
}

func (c *Context) direct(id attr.ID) (string, bool) {
	switch id {
	case attr.Method:
		return c.req.Method(), true
	case attr.URL:
		return c.ev.URL(), true
	case attr.QueryString:
		return c.req.QueryString()
	case attr.PhysicalPath:
		return c.ev.PhysicalPath(), true
	}
	return "", false
}

func nonEmpty(v string, ok bool) (string, bool) {
	return v, ok && v != ""
}

// Header looks up a request header by name. Unlike Resolve it keeps absent
// and empty apart: a present header with an empty value returns a non-nil
// empty slice and true.
func (c *Context) Header(name string) ([]byte, bool) {
	v, ok := c.req.Header(name)
	if !ok {
		c.notify(Event{Type: EventResolveMiss, Name: name})
		return nil, false
	}
	return append([]byte{}, v...), true
}

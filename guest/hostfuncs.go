package guest

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/hostbridge/adapter"
	"github.com/wippyai/hostbridge/attr"
	"github.com/wippyai/hostbridge/handle"
)

type hostFunc struct {
	name    string
	fn      api.GoModuleFunc
	params  []api.ValueType
	results []api.ValueType
}

var (
	resultI32 = []api.ValueType{api.ValueTypeI32}
	resultI64 = []api.ValueType{api.ValueTypeI64}
)

func i32s(n int) []api.ValueType {
	t := make([]api.ValueType, n)
	for i := range t {
		t[i] = api.ValueTypeI32
	}
	return t
}

func (h *Handler) hostFuncs() []hostFunc {
	return []hostFunc{
		{FuncResolveAttribute, h.resolveAttribute, i32s(4), resultI64},
		{FuncReadHeader, h.readHeader, i32s(5), resultI64},
		{FuncReadBody, h.readBody, i32s(3), resultI64},
		{FuncAppendChunk, h.appendChunk, i32s(3), resultI32},
		{FuncFlush, h.flush, i32s(2), resultI64},
		{FuncAppendAndFlush, h.appendAndFlush, i32s(4), resultI64},
		{FuncSetStatus, h.setStatus, i32s(4), resultI32},
		{FuncSetHeader, h.setHeader, i32s(5), resultI32},
		{FuncSetPhysicalPath, h.setPhysicalPath, i32s(3), resultI32},
		{FuncLog, h.logMessage, i32s(3), nil},
	}
}

// exportHostModule instantiates the hostbridge import module.
func (h *Handler) exportHostModule(ctx context.Context) error {
	builder := h.runtime.NewHostModuleBuilder(ModuleName)
	for _, f := range h.hostFuncs() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(f.name)
	}
	_, err := builder.Instantiate(ctx)
	return err
}

func (h *Handler) context(stack []uint64) (*adapter.Context, bool) {
	return h.handles.Get(handle.Handle(api.DecodeU32(stack[0])))
}

func status32(stack []uint64, s Status) { stack[0] = api.EncodeI32(int32(s)) }
func status64(stack []uint64, s Status) { stack[0] = api.EncodeI64(int64(s)) }

// readString copies n bytes at off out of guest memory.
func readString(mod api.Module, off, n uint32) (string, bool) {
	if n == 0 {
		return "", true
	}
	b, ok := mod.Memory().Read(off, n)
	if !ok {
		return "", false
	}
	return string(b), true
}

// putValue writes v at off when it fits in limit and returns its length.
func putValue(mod api.Module, stack []uint64, v []byte, off, limit uint32) {
	if len(v) > 0 && uint32(len(v)) <= limit {
		if !mod.Memory().Write(off, v) {
			status64(stack, StatusMemory)
			return
		}
	}
	stack[0] = api.EncodeI64(int64(len(v)))
}

// resolve_attribute(h, id, buf, limit) -> i64
func (h *Handler) resolveAttribute(_ context.Context, mod api.Module, stack []uint64) {
	c, ok := h.context(stack)
	if !ok {
		status64(stack, StatusInvalidHandle)
		return
	}
	v, ok := c.Resolve(attr.ID(api.DecodeU32(stack[1])))
	if !ok {
		status64(stack, StatusAbsent)
		return
	}
	putValue(mod, stack, v, api.DecodeU32(stack[2]), api.DecodeU32(stack[3]))
}

// read_header(h, name, name_len, buf, limit) -> i64
func (h *Handler) readHeader(_ context.Context, mod api.Module, stack []uint64) {
	c, ok := h.context(stack)
	if !ok {
		status64(stack, StatusInvalidHandle)
		return
	}
	name, ok := readString(mod, api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
	if !ok {
		status64(stack, StatusMemory)
		return
	}
	if name == "" {
		status64(stack, StatusInvalidArgument)
		return
	}
	v, ok := c.Header(name)
	if !ok {
		status64(stack, StatusAbsent)
		return
	}
	putValue(mod, stack, v, api.DecodeU32(stack[3]), api.DecodeU32(stack[4]))
}

// read_body(h, buf, cap) -> i64 more<<32 | n
func (h *Handler) readBody(_ context.Context, mod api.Module, stack []uint64) {
	c, ok := h.context(stack)
	if !ok {
		status64(stack, StatusInvalidHandle)
		return
	}
	buf, ok := mod.Memory().Read(api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
	if !ok {
		status64(stack, StatusMemory)
		return
	}
	n, more, err := c.ReadBody(buf)
	if err != nil {
		status64(stack, statusOf(err))
		return
	}
	stack[0] = packPair(more, n)
}

// append_chunk(h, buf, len) -> i32
func (h *Handler) appendChunk(_ context.Context, mod api.Module, stack []uint64) {
	c, ok := h.context(stack)
	if !ok {
		status32(stack, StatusInvalidHandle)
		return
	}
	b, ok := mod.Memory().Read(api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
	if !ok {
		status32(stack, StatusMemory)
		return
	}
	status32(stack, statusOf(c.AppendChunk(b)))
}

// flush(h, more) -> i64 completed<<32 | sent
func (h *Handler) flush(_ context.Context, _ api.Module, stack []uint64) {
	c, ok := h.context(stack)
	if !ok {
		status64(stack, StatusInvalidHandle)
		return
	}
	sent, completed, err := c.Flush(api.DecodeU32(stack[1]) != 0)
	if err != nil {
		status64(stack, statusOf(err))
		return
	}
	stack[0] = packPair(completed, sent)
}

// append_and_flush(h, buf, len, more) -> i64 sent
func (h *Handler) appendAndFlush(_ context.Context, mod api.Module, stack []uint64) {
	c, ok := h.context(stack)
	if !ok {
		status64(stack, StatusInvalidHandle)
		return
	}
	b, ok := mod.Memory().Read(api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
	if !ok {
		status64(stack, StatusMemory)
		return
	}
	sent, err := c.WriteAndFlush(b, api.DecodeU32(stack[3]) != 0)
	if err != nil {
		status64(stack, statusOf(err))
		return
	}
	stack[0] = api.EncodeI64(int64(sent))
}

// set_status(h, code, reason, reason_len) -> i32
func (h *Handler) setStatus(_ context.Context, mod api.Module, stack []uint64) {
	c, ok := h.context(stack)
	if !ok {
		status32(stack, StatusInvalidHandle)
		return
	}
	reason, ok := readString(mod, api.DecodeU32(stack[2]), api.DecodeU32(stack[3]))
	if !ok {
		status32(stack, StatusMemory)
		return
	}
	status32(stack, statusOf(c.SetStatus(int(api.DecodeI32(stack[1])), reason)))
}

// set_header(h, name, name_len, value, value_len) -> i32
func (h *Handler) setHeader(_ context.Context, mod api.Module, stack []uint64) {
	c, ok := h.context(stack)
	if !ok {
		status32(stack, StatusInvalidHandle)
		return
	}
	name, ok := readString(mod, api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
	if !ok {
		status32(stack, StatusMemory)
		return
	}
	value, ok := readString(mod, api.DecodeU32(stack[3]), api.DecodeU32(stack[4]))
	if !ok {
		status32(stack, StatusMemory)
		return
	}
	status32(stack, statusOf(c.SetHeader(name, value)))
}

// set_physical_path(h, path, path_len) -> i32
func (h *Handler) setPhysicalPath(_ context.Context, mod api.Module, stack []uint64) {
	c, ok := h.context(stack)
	if !ok {
		status32(stack, StatusInvalidHandle)
		return
	}
	p, ok := readString(mod, api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
	if !ok {
		status32(stack, StatusMemory)
		return
	}
	status32(stack, statusOf(c.SetPhysicalPath(p)))
}

// log(level, msg, msg_len)
func (h *Handler) logMessage(ctx context.Context, mod api.Module, stack []uint64) {
	msg, ok := readString(mod, api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
	if !ok {
		return
	}

	l := h.log
	if c := requestFrom(ctx); c != nil {
		l = c.Logger()
	}
	if ce := l.Check(logLevel(api.DecodeI32(stack[0])), msg); ce != nil {
		ce.Write(zap.String("source", "guest"))
	}
}

func logLevel(level int32) zapcore.Level {
	switch {
	case level <= LevelDebug:
		return zapcore.DebugLevel
	case level == LevelInfo:
		return zapcore.InfoLevel
	case level == LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

type requestKey struct{}

func withRequest(ctx context.Context, c *adapter.Context) context.Context {
	return context.WithValue(ctx, requestKey{}, c)
}

func requestFrom(ctx context.Context) *adapter.Context {
	c, _ := ctx.Value(requestKey{}).(*adapter.Context)
	return c
}

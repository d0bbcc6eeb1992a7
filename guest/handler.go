package guest

import (
	"context"
	"runtime"
	"slices"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/adapter"
	"github.com/wippyai/hostbridge/errors"
	"github.com/wippyai/hostbridge/handle"
	"github.com/wippyai/hostbridge/host"
)

// Option configures Compile.
type Option func(*config)

type config struct {
	logger           *zap.Logger
	poolSize         int
	memoryLimitPages uint32
}

// WithPoolSize caps the number of idle guest instances kept for reuse.
// It defaults to GOMAXPROCS.
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithMemoryLimitPages caps guest memory in 64KiB pages. Zero keeps the
// runtime default.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *config) { c.memoryLimitPages = pages }
}

// WithLogger sets the logger for guest lifecycle and guest log calls.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Handler is an adapter.Handler backed by a compiled guest module. Guest
// instances are single-threaded; each request borrows one from the pool.
type Handler struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	handles  *handle.Table[*adapter.Context]
	idle     chan *instance
	log      *zap.Logger
	closed   atomic.Bool
}

var _ adapter.Handler = (*Handler)(nil)

type instance struct {
	mod   api.Module
	fn    api.Function
	stack []uint64
}

// Compile validates and compiles a guest module, links the host functions,
// and warms one instance.
func Compile(ctx context.Context, wasm []byte, opts ...Option) (*Handler, error) {
	cfg := config{poolSize: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = Logger()
	}

	rc := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.memoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rc)

	h := &Handler{
		runtime: rt,
		handles: handle.NewTable[*adapter.Context](),
		idle:    make(chan *instance, cfg.poolSize),
		log:     cfg.logger,
	}

	if err := h.load(ctx, wasm); err != nil {
		rt.Close(ctx)
		return nil, err
	}
	return h, nil
}

func (h *Handler) load(ctx context.Context, wasm []byte) error {
	compiled, err := h.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return errors.Wrap(errors.PhaseGuest, errors.KindInvalidInput, err, "compile guest module")
	}
	h.compiled = compiled

	if err := checkExports(compiled); err != nil {
		return err
	}

	if err := h.exportHostModule(ctx); err != nil {
		return errors.Wrap(errors.PhaseGuest, errors.KindRegistration, err, "instantiate host module")
	}
	if importsWASI(compiled) {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, h.runtime); err != nil {
			return errors.Wrap(errors.PhaseGuest, errors.KindRegistration, err, "instantiate WASI")
		}
	}

	inst, err := h.instantiate(ctx)
	if err != nil {
		return err
	}
	h.release(inst)

	h.log.Debug("guest compiled",
		zap.Int("imports", len(compiled.ImportedFunctions())),
		zap.Int("pool_size", cap(h.idle)))
	return nil
}

func checkExports(compiled wazero.CompiledModule) error {
	fn, ok := compiled.ExportedFunctions()[ExportHandleRequest]
	if !ok {
		return errors.NotFound(errors.PhaseGuest, "export", ExportHandleRequest)
	}
	i32 := []api.ValueType{api.ValueTypeI32}
	if !slices.Equal(fn.ParamTypes(), i32) || !slices.Equal(fn.ResultTypes(), i32) {
		return errors.New(errors.PhaseGuest, errors.KindInvalidInput).
			Target(ExportHandleRequest).
			Detail("signature must be (i32) -> i32").
			Build()
	}
	if _, ok := compiled.ExportedMemories()[ExportMemory]; !ok {
		return errors.NotFound(errors.PhaseGuest, "export", ExportMemory)
	}
	return nil
}

func importsWASI(compiled wazero.CompiledModule) bool {
	for _, f := range compiled.ImportedFunctions() {
		if mod, _, _ := f.Import(); mod == wasi_snapshot_preview1.ModuleName {
			return true
		}
	}
	return false
}

func (h *Handler) instantiate(ctx context.Context) (*instance, error) {
	// anonymous for parallel instantiation; reactors get _initialize run
	cfg := wazero.NewModuleConfig().WithName("").WithStartFunctions("_initialize")
	mod, err := h.runtime.InstantiateModule(ctx, h.compiled, cfg)
	if err != nil {
		return nil, errors.Allocation(errors.PhaseGuest, "guest instance", err)
	}
	return &instance{
		mod:   mod,
		fn:    mod.ExportedFunction(ExportHandleRequest),
		stack: make([]uint64, 1),
	}, nil
}

func (h *Handler) acquire(ctx context.Context) (*instance, error) {
	select {
	case inst := <-h.idle:
		return inst, nil
	default:
		return h.instantiate(ctx)
	}
}

func (h *Handler) release(inst *instance) {
	if !h.closed.Load() {
		select {
		case h.idle <- inst:
			return
		default:
		}
	}
	inst.mod.Close(context.Background())
}

// ServeMapPath publishes c under a fresh handle and calls the guest's
// handle_request with it.
func (h *Handler) ServeMapPath(c *adapter.Context) host.Disposition {
	hd, err := h.handles.Insert(c)
	if err != nil {
		return c.Fail(errors.Allocation(errors.PhaseBind, "request handle", err))
	}
	defer h.handles.Remove(hd)

	ctx := withRequest(c.Context(), c)
	inst, err := h.acquire(ctx)
	if err != nil {
		return c.Fail(err)
	}

	inst.stack[0] = api.EncodeU32(uint32(hd))
	if err := inst.fn.CallWithStack(ctx, inst.stack); err != nil {
		// a trapped instance may hold broken state
		inst.mod.Close(context.Background())
		return c.Fail(errors.New(errors.PhaseGuest, errors.KindTrap).
			Target(ExportHandleRequest).
			Cause(err).
			Detail("guest call failed").
			Build())
	}
	d := host.Disposition(api.DecodeI32(inst.stack[0]))
	h.release(inst)
	return d
}

// Idle reports the number of pooled instances.
func (h *Handler) Idle() int { return len(h.idle) }

// Close releases every instance and the runtime. Requests arriving later
// fail with an allocation error.
func (h *Handler) Close(ctx context.Context) error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	h.handles.Close()
	for {
		select {
		case inst := <-h.idle:
			inst.mod.Close(ctx)
		default:
			return h.runtime.Close(ctx)
		}
	}
}

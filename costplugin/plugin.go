package costplugin

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/slotpack/errors"
)

// Export is the function name a plugin must export.
const Export = "slot_cost"

// Options configure plugin instantiation.
type Options struct {
	// Name is reported in errors. Defaults to "plugin".
	Name string
	// MemoryLimitPages caps guest memory in 64KB pages. 0 keeps the wazero default.
	MemoryLimitPages uint32
}

// Plugin is an instantiated cost module. It implements cost.SlotCoster and is
// safe for concurrent use; calls into the guest are serialized.
type Plugin struct {
	runtime wazero.Runtime
	module  api.Module
	fn      api.Function
	name    string
	mu      sync.Mutex
}

// LoadFile reads a .wasm file and loads it.
func LoadFile(ctx context.Context, path string, opts *Options) (*Plugin, error) {
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Plugin("read "+path, err)
	}
	if opts == nil {
		opts = &Options{}
	}
	if opts.Name == "" {
		o := *opts
		o.Name = path
		opts = &o
	}
	return Load(ctx, bin, opts)
}

// Load compiles and instantiates a plugin module.
func Load(ctx context.Context, wasmBytes []byte, opts *Options) (*Plugin, error) {
	name := "plugin"
	cfg := wazero.NewRuntimeConfig()
	if opts != nil {
		if opts.Name != "" {
			name = opts.Name
		}
		if opts.MemoryLimitPages > 0 {
			cfg = cfg.WithMemoryLimitPages(opts.MemoryLimitPages)
		}
	}

	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Plugin(name+": compile", err)
	}

	fnDef := compiled.ExportedFunctions()[Export]
	if fnDef == nil {
		_ = rt.Close(ctx)
		return nil, errors.Plugin(fmt.Sprintf("%s: missing export %q", name, Export), nil)
	}
	if err := checkSignature(fnDef); err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Plugin(name, err)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Plugin(name+": instantiate", err)
	}

	return &Plugin{
		runtime: rt,
		module:  mod,
		fn:      mod.ExportedFunction(Export),
		name:    name,
	}, nil
}

func checkSignature(def api.FunctionDefinition) error {
	params, results := def.ParamTypes(), def.ResultTypes()
	ok := len(params) == 3 && len(results) == 1 && results[0] == api.ValueTypeI64
	for _, p := range params {
		ok = ok && p == api.ValueTypeI32
	}
	if !ok {
		return fmt.Errorf("%s has signature %s, want (i32, i32, i32) -> i64", Export, signature(params, results))
	}
	return nil
}

func signature(params, results []api.ValueType) string {
	s := "("
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(p)
	}
	s += ") -> ("
	for i, r := range results {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(r)
	}
	return s + ")"
}

// Name returns the name used in errors.
func (p *Plugin) Name() string {
	return p.name
}

// SlotCost implements cost.SlotCoster.
func (p *Plugin) SlotCost(slot int, reads, writes uint64) (uint64, error) {
	return p.SlotCostContext(context.Background(), slot, reads, writes)
}

// SlotCostContext calls the guest with ctx.
func (p *Plugin) SlotCostContext(ctx context.Context, slot int, reads, writes uint64) (uint64, error) {
	if slot < 0 || slot > math.MaxInt32 || reads > math.MaxUint32 || writes > math.MaxUint32 {
		return 0, errors.New(errors.PhasePlugin, errors.KindPlugin).
			Value([]uint64{uint64(slot), reads, writes}).
			Detail("%s: arguments exceed i32", p.name).
			Build()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fn == nil {
		return 0, errors.Plugin(p.name+": closed", nil)
	}
	res, err := p.fn.Call(ctx, api.EncodeI32(int32(slot)), api.EncodeU32(uint32(reads)), api.EncodeU32(uint32(writes)))
	if err != nil {
		return 0, errors.Plugin(fmt.Sprintf("%s: slot %d", p.name, slot), err)
	}
	v := int64(res[0])
	if v < 0 {
		return 0, errors.New(errors.PhasePlugin, errors.KindPlugin).
			Value(v).
			Detail("%s: negative cost %d for slot %d", p.name, v, slot).
			Build()
	}
	return uint64(v), nil
}

// Close releases the module and its runtime. Later calls fail.
func (p *Plugin) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runtime == nil {
		return nil
	}
	err := p.runtime.Close(ctx)
	p.runtime, p.module, p.fn = nil, nil, nil
	return err
}

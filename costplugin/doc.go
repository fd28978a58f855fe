// Package costplugin loads per-slot cost functions written in WebAssembly.
//
// A plugin is a core module exporting
//
//	(func (export "slot_cost") (param $slot i32) (param $reads i32) (param $writes i32) (result i64))
//
// The returned value is added to a transaction's cost for every slot it
// touches. Negative results and traps are reported as plugin errors. The
// module runs on wazero with no host imports, so it cannot reach the
// filesystem or network.
//
// Basic usage:
//
//	p, err := costplugin.LoadFile(ctx, "cost.wasm", nil)
//	if err != nil {
//		return err
//	}
//	defer p.Close(ctx)
//	model := &cost.Model{Params: cost.DefaultParams(), Extra: p}
package costplugin

package costplugin

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wippyai/slotpack/cost"
	"github.com/wippyai/slotpack/errors"
	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/schema"
)

// Binary modules are assembled by hand. All sizes stay below 128, so every
// LEB128 length is one byte.

func section(id byte, content ...byte) []byte {
	return append([]byte{id, byte(len(content))}, content...)
}

func module(sections ...[]byte) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

func exportFunc(name string) []byte {
	content := []byte{0x01, byte(len(name))}
	content = append(content, name...)
	content = append(content, 0x00, 0x00)
	return section(0x07, content...)
}

func code(body ...byte) []byte {
	fn := append([]byte{0x00}, body...)
	return section(0x0a, append([]byte{0x01, byte(len(fn))}, fn...)...)
}

var (
	costType = section(0x01, 0x01, 0x60, 0x03, 0x7f, 0x7f, 0x7f, 0x01, 0x7e)
	oneFunc  = section(0x03, 0x01, 0x00)
)

// readsPlusWrites returns i64(reads + writes).
func readsPlusWrites() []byte {
	return module(costType, oneFunc, exportFunc(Export),
		code(0x20, 0x01, 0x20, 0x02, 0x6a, 0xad, 0x0b))
}

// slotOnly returns i64(slot).
func slotOnly() []byte {
	return module(costType, oneFunc, exportFunc(Export),
		code(0x20, 0x00, 0xad, 0x0b))
}

func TestLoadAndCall(t *testing.T) {
	ctx := context.Background()
	p, err := Load(ctx, readsPlusWrites(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Close(ctx)

	tests := []struct {
		name          string
		slot          int
		reads, writes uint64
		want          uint64
	}{
		{"zero", 0, 0, 0},
		{"reads", 3, 7, 0},
		{"both", 1, 2, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.SlotCost(tc.slot, tc.reads, tc.writes)
			if err != nil {
				t.Fatalf("SlotCost: %v", err)
			}
			if got != tc.want {
				t.Errorf("cost: got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		wasm []byte
	}{
		{"garbage", []byte("not wasm")},
		{"missing_export", module(costType, oneFunc, exportFunc("other"), code(0x42, 0x00, 0x0b))},
		{
			"wrong_signature",
			module(section(0x01, 0x01, 0x60, 0x00, 0x01, 0x7f), oneFunc, exportFunc(Export), code(0x41, 0x07, 0x0b)),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(context.Background(), tc.wasm, &Options{Name: tc.name})
			if !errors.IsKind(err, errors.KindPlugin) {
				t.Fatalf("got %v, want plugin error", err)
			}
		})
	}
}

func TestTrapAndNegative(t *testing.T) {
	ctx := context.Background()

	trap, err := Load(ctx, module(costType, oneFunc, exportFunc(Export), code(0x00, 0x0b)), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer trap.Close(ctx)
	if _, err := trap.SlotCost(0, 1, 1); !errors.IsKind(err, errors.KindPlugin) {
		t.Errorf("trap: got %v, want plugin error", err)
	}

	// i64.const -1
	neg, err := Load(ctx, module(costType, oneFunc, exportFunc(Export), code(0x42, 0x7f, 0x0b)), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer neg.Close(ctx)
	if _, err := neg.SlotCost(0, 1, 1); !errors.IsKind(err, errors.KindPlugin) {
		t.Errorf("negative: got %v, want plugin error", err)
	}
}

func TestArgumentOverflow(t *testing.T) {
	ctx := context.Background()
	p, err := Load(ctx, readsPlusWrites(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Close(ctx)
	if _, err := p.SlotCost(0, 1<<33, 0); !errors.IsKind(err, errors.KindPlugin) {
		t.Errorf("got %v, want plugin error", err)
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	p, err := Load(ctx, readsPlusWrites(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(ctx); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := p.SlotCost(0, 1, 1); !errors.IsKind(err, errors.KindPlugin) {
		t.Errorf("call after close: got %v, want plugin error", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slot.wasm")
	if err := os.WriteFile(path, slotOnly(), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	p, err := LoadFile(ctx, path, nil)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	defer p.Close(ctx)
	if p.Name() != path {
		t.Errorf("name: got %q, want %q", p.Name(), path)
	}
	got, err := p.SlotCost(9, 0, 0)
	if err != nil || got != 9 {
		t.Errorf("SlotCost: got %d, %v, want 9", got, err)
	}

	if _, err := LoadFile(ctx, filepath.Join(t.TempDir(), "missing.wasm"), nil); !errors.IsKind(err, errors.KindPlugin) {
		t.Errorf("missing file: got %v, want plugin error", err)
	}
}

func TestModelExtra(t *testing.T) {
	ctx := context.Background()
	p, err := Load(ctx, slotOnly(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Close(ctx)

	l, err := layout.Pack([]schema.Field{schema.Scalar("a", 32), schema.Scalar("b", 32), schema.Scalar("c", 32)})
	if err != nil {
		t.Fatal(err)
	}
	m := &cost.Model{Extra: p}
	profile := cost.Profile{Transactions: []cost.Transaction{{
		Access: map[string]cost.Access{"b": {Reads: 1}, "c": {Reads: 1}},
	}}}
	got, err := m.Score(l, profile)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 3 {
		t.Errorf("cost: got %d, want 3", got)
	}
}

func TestConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	p, err := Load(ctx, readsPlusWrites(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Close(ctx)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, err := p.SlotCost(i, uint64(i), uint64(j))
				if err != nil {
					errs <- err
					return
				}
				if got != uint64(i+j) {
					errs <- errors.Plugin("mismatch", nil)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

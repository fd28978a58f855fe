// Package slotpack packs record fields into fixed 32-byte storage slots.
//
// A contract-style store keeps each record as a run of 32-byte slots.
// Fields are placed in declaration order, packing small fields together
// while they fit; dynamic fields (strings, arrays, maps) always take a fresh
// slot of their own. The declared order therefore decides how many slots a
// record uses and how many of them a transaction touches.
//
// # Architecture Overview
//
//	slotpack/
//	├── schema/       Field declarations, locks, groups and schema checks
//	├── layout/       The packer, validator and layout fingerprints
//	├── cost/         Access profiles and the slot-touch cost model
//	├── optimizer/    Exact and heuristic search for the cheapest order
//	├── costplugin/   Per-slot cost functions written in WebAssembly
//	├── witimport/    Schemas derived from WIT record types
//	├── config/       Lua, JSON and HCL layout documents
//	├── report/       Text, JSON and terminal rendering
//	├── errors/       Structured error types
//	└── cmd/slotpack  Command line tool
//
// # Quick Start
//
//	s, err := schema.New(
//	    schema.Scalar("owner", 20),
//	    schema.Scalar("balance", 32),
//	    schema.Scalar("isActive", 1),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r, _ := layout.ValidateSchema(s)
//	fmt.Println(r.SlotCount) // 3
//
//	res, err := optimizer.Optimize(ctx, s, cost.Profile{}, optimizer.Options{})
//	if err != nil && !errors.IsNonFatal(err) {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Order, res.Slots) // [balance isActive owner] 2
//
// # Constraints
//
// Fields may be locked to a slot and byte offset, which the optimizer never
// changes, and may belong to a group whose members stay adjacent. A search
// that exceeds its node budget or deadline still returns the best heuristic
// layout together with a non-fatal search_budget_exceeded error.
package slotpack

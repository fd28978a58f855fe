// Package layout implements the mechanical packing rule and the fixed-order audit.
//
// # Packing Rule
//
// Pack walks fields left to right with a cursor (current slot, bytes used):
//   - Dynamic field: close the current slot if it holds anything, take a
//     fresh slot alone, close it.
//   - Scalar field that does not fit the remaining bytes: close the current
//     slot and start a new one.
//   - Otherwise: append at the next free offset.
//   - Locked field: advance the cursor to the lock position. Skipped bytes
//     become waste. Failing if the cursor is already past it.
//
// Pack never reorders. Any improvement comes from the optimizer choosing a
// better input order.
//
// # Validation
//
// Validate packs a hand-written order and reports per-slot waste. Dynamic
// slots have no meaningful waste and report Applicable=false.
package layout

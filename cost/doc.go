// Package cost scores layouts against a declared access profile.
//
// The model charges every field access a warm read or write cost and adds a
// one-time cold surcharge the first time a transaction touches each distinct
// slot. Two fields sharing a slot therefore share the surcharge, which is what
// makes co-locating hot fields worthwhile.
//
//	cost = Σ tx.weight × ( Σ fields (reads×WarmRead + writes×WarmWrite)
//	                      + Σ touched slots (ColdSurcharge + SlotCost(slot)) )
//
// The model ranks candidate layouts; it is not a gas oracle. An optional
// SlotCoster adds a caller-defined per-slot charge (see package costplugin).
package cost

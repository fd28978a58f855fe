// Package optimizer chooses the field order that packs a schema into the
// fewest slots, breaking ties by access cost.
//
// # Search
//
// Free fields are grouped into atomic units: one per ungrouped field and one
// per group. Locked fields keep their storage position and are placed as lock
// steps in storage order. A group with locked members becomes a single step:
// its free members may sit before, between or after its locks, padding slots
// included, as long as no other field lands inside the group's run.
//
// Every unit and step carries its admissible member orders, so a group's
// internal order is chosen where the group actually starts. Groups with more
// than 720 member orders keep one order arranged on their own, and the result
// is then not reported as exact.
//
// Small instances (units <= Options.ExactThreshold) are solved exactly:
//
//  1. A DP over (placed units, placed locks) keeps the smallest cursor per
//     state. Greedy packing is monotone in the cursor, so the DP yields the
//     optimal slot count.
//  2. A backward pass computes, per state, the largest cursor that can still
//     reach the optimum.
//  3. A depth-first walk enumerates only orderings on optimal paths, scores
//     each with the cost model and keeps the minimum. Units and free group
//     members packed wholly inside one slot are only tried in ascending
//     order, since permuting them changes nothing but the tie-break.
//
// The first branching level is spread across Options.Workers goroutines and
// merged with a deterministic minimum, so output does not depend on scheduling.
//
// Larger instances use first-fit-decreasing over units that fit one slot,
// followed by larger units and dynamic fields, with free units slotted into
// the padding in front of locks. Heuristic results also compete with the
// input order, so they are never worse than what the caller supplied. Exact
// results do not depend on the order fields were declared in.
//
// # Ordering
//
// Candidates are ranked by (slots, cost, order). Orders compare position by
// position on (dynamic, name): scalars before dynamic fields, then names
// ascending. Dynamic fields therefore trail whenever nothing else tells two
// orders apart.
//
// # Budget
//
// Options.MaxNodes and the context deadline bound the exact search. When
// either runs out the heuristic layout is returned together with a
// search_budget_exceeded error that errors.IsNonFatal accepts.
package optimizer

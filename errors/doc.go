// Package errors provides structured error types for the slotpack library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the offending field names, a detail message and a cause chain,
// which is enough for a host tool to render a diagnostic verbatim.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseOptimize, errors.KindUnsatisfiable).
//		Fields("owner", "balance").
//		Detail("locks overlap in slot %d", 0).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidField(errors.PhaseSchema, "owner", 40)
//	err := errors.DuplicateName(errors.PhasePack, "owner")
//
// All errors implement the standard error interface and support errors.Is/As.
// KindSearchBudgetExceeded is the only non-fatal kind: it accompanies a usable
// result, see IsNonFatal.
package errors

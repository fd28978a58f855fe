// Package report renders layouts, audits and optimization results.
//
// Text and Summary write plain tables suitable for logs and pipes. Styled
// renders the same table with lipgloss for terminals, and JSON writes the
// machine-readable form.
package report

package cost

import (
	"sort"

	"github.com/wippyai/slotpack/errors"
)

// Access counts reads and writes of one field within a transaction.
type Access struct {
	Reads  uint64 `json:"reads"`
	Writes uint64 `json:"writes"`
}

// Transaction is one modelled unit of work. Cold surcharges are paid once per
// slot per transaction. Weight multiplies the whole transaction; 0 means 1.
type Transaction struct {
	Access map[string]Access `json:"access"`
	Name   string            `json:"name"`
	Weight uint64            `json:"weight,omitempty"`
}

func (t Transaction) weight() uint64 {
	if t.Weight == 0 {
		return 1
	}
	return t.Weight
}

// Profile is the declared operation mix used to rank layouts.
type Profile struct {
	Transactions []Transaction `json:"transactions"`
}

// Empty reports whether the profile declares no transactions.
func (p Profile) Empty() bool {
	return len(p.Transactions) == 0
}

// Uniform returns a profile with one transaction that reads and writes every
// field once.
func Uniform(names []string) Profile {
	tx := Transaction{Name: "uniform", Access: make(map[string]Access, len(names))}
	for _, n := range names {
		tx.Access[n] = Access{Reads: 1, Writes: 1}
	}
	return Profile{Transactions: []Transaction{tx}}
}

// Check verifies that the profile only references known fields.
func (p Profile) Check(names []string) error {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	for _, tx := range p.Transactions {
		for _, n := range sortedNames(tx.Access) {
			if !known[n] {
				return errors.UnknownField(errors.PhaseCost, n)
			}
		}
	}
	return nil
}

func sortedNames(m map[string]Access) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

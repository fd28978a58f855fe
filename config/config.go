package config

import (
	"time"

	"github.com/wippyai/slotpack/cost"
	"github.com/wippyai/slotpack/errors"
	"github.com/wippyai/slotpack/optimizer"
	"github.com/wippyai/slotpack/schema"
)

// Document is a decoded layout document.
type Document struct {
	Params      *ParamsSpec `gluamapper:"params" json:"params,omitempty" hcl:"params"`
	Source      string      `gluamapper:"-" json:"-" hcl:"-"`
	Fields      []FieldSpec `gluamapper:"fields" json:"fields" hcl:"fields"`
	ProfileSpec ProfileSpec `gluamapper:"profile" json:"profile" hcl:"profile"`
	Search      SearchSpec  `gluamapper:"search" json:"search" hcl:"search"`
}

// FieldSpec is one field entry.
type FieldSpec struct {
	Lock    *LockSpec `gluamapper:"lock" json:"lock,omitempty" hcl:"lock"`
	Name    string    `gluamapper:"name" json:"name" hcl:"name"`
	Group   string    `gluamapper:"group" json:"group,omitempty" hcl:"group"`
	Width   int       `gluamapper:"width" json:"width,omitempty" hcl:"width"`
	Dynamic bool      `gluamapper:"dynamic" json:"dynamic,omitempty" hcl:"dynamic"`
}

// LockSpec pins a field to a slot and byte offset.
type LockSpec struct {
	Slot   int `gluamapper:"slot" json:"slot" hcl:"slot"`
	Offset int `gluamapper:"offset" json:"offset" hcl:"offset"`
}

// ProfileSpec is the declared access mix.
type ProfileSpec struct {
	Transactions []TransactionSpec `gluamapper:"transactions" json:"transactions" hcl:"transactions"`
}

// TransactionSpec describes one transaction's field accesses.
type TransactionSpec struct {
	Access map[string]AccessSpec `gluamapper:"access" json:"access" hcl:"access"`
	Name   string                `gluamapper:"name" json:"name" hcl:"name"`
	Weight int64                 `gluamapper:"weight" json:"weight,omitempty" hcl:"weight"`
}

// AccessSpec counts reads and writes of a field.
type AccessSpec struct {
	Reads  int64 `gluamapper:"reads" json:"reads" hcl:"reads"`
	Writes int64 `gluamapper:"writes" json:"writes" hcl:"writes"`
}

// ParamsSpec overrides cost parameters. Unset entries keep their defaults.
type ParamsSpec struct {
	WarmRead      *int64 `gluamapper:"warm_read" json:"warm_read,omitempty" hcl:"warm_read"`
	WarmWrite     *int64 `gluamapper:"warm_write" json:"warm_write,omitempty" hcl:"warm_write"`
	ColdSurcharge *int64 `gluamapper:"cold_surcharge" json:"cold_surcharge,omitempty" hcl:"cold_surcharge"`
}

// SearchSpec tunes the optimizer.
type SearchSpec struct {
	Timeout        string `gluamapper:"timeout" json:"timeout,omitempty" hcl:"timeout"`
	ExactThreshold int    `gluamapper:"exact_threshold" json:"exact_threshold,omitempty" hcl:"exact_threshold"`
	MaxNodes       int64  `gluamapper:"max_nodes" json:"max_nodes,omitempty" hcl:"max_nodes"`
	Workers        int    `gluamapper:"workers" json:"workers,omitempty" hcl:"workers"`
}

// Schema builds the fixed field order.
func (d *Document) Schema() (*schema.Schema, error) {
	fields := make([]schema.Field, len(d.Fields))
	for i, fs := range d.Fields {
		f := schema.Field{
			Name:    fs.Name,
			Group:   fs.Group,
			Width:   fs.Width,
			Dynamic: fs.Dynamic,
		}
		if fs.Dynamic && f.Width == 0 {
			f.Width = schema.SlotSize
		}
		if fs.Lock != nil {
			f = f.LockedAt(fs.Lock.Slot, fs.Lock.Offset)
		}
		fields[i] = f
	}
	return schema.New(fields...)
}

// Profile returns the access profile. It is empty when none was declared.
func (d *Document) Profile() cost.Profile {
	var p cost.Profile
	for _, ts := range d.ProfileSpec.Transactions {
		tx := cost.Transaction{
			Name:   ts.Name,
			Weight: uint64(ts.Weight),
			Access: make(map[string]cost.Access, len(ts.Access)),
		}
		for name, a := range ts.Access {
			tx.Access[name] = cost.Access{Reads: uint64(a.Reads), Writes: uint64(a.Writes)}
		}
		p.Transactions = append(p.Transactions, tx)
	}
	return p
}

// CostParams returns the default parameters with document overrides applied.
func (d *Document) CostParams() cost.Params {
	p := cost.DefaultParams()
	if d.Params == nil {
		return p
	}
	if d.Params.WarmRead != nil {
		p.WarmRead = uint64(*d.Params.WarmRead)
	}
	if d.Params.WarmWrite != nil {
		p.WarmWrite = uint64(*d.Params.WarmWrite)
	}
	if d.Params.ColdSurcharge != nil {
		p.ColdSurcharge = uint64(*d.Params.ColdSurcharge)
	}
	return p
}

// Options returns optimizer options for the document's search settings.
func (d *Document) Options() optimizer.Options {
	return optimizer.Options{
		Model:          cost.NewModel(d.CostParams()),
		ExactThreshold: d.Search.ExactThreshold,
		MaxNodes:       d.Search.MaxNodes,
		Workers:        d.Search.Workers,
	}
}

// check rejects negative counts and charges. Widths and locks are checked by
// Schema.
func (d *Document) check() error {
	bad := func(what string, v int64) error {
		return errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
			Value(v).
			Detail("%s: negative %s", d.Source, what).
			Build()
	}
	if d.Params != nil {
		charges := []struct {
			what string
			v    *int64
		}{
			{"params.warm_read", d.Params.WarmRead},
			{"params.warm_write", d.Params.WarmWrite},
			{"params.cold_surcharge", d.Params.ColdSurcharge},
		}
		for _, c := range charges {
			if c.v != nil && *c.v < 0 {
				return bad(c.what, *c.v)
			}
		}
	}
	for _, ts := range d.ProfileSpec.Transactions {
		if ts.Weight < 0 {
			return bad("weight in transaction "+ts.Name, ts.Weight)
		}
		for name, a := range ts.Access {
			if a.Reads < 0 || a.Writes < 0 {
				return bad("access count for "+name, min(a.Reads, a.Writes))
			}
		}
	}
	_, err := d.Timeout()
	return err
}

// Timeout returns the search deadline, 0 when unset.
func (d *Document) Timeout() (time.Duration, error) {
	if d.Search.Timeout == "" {
		return 0, nil
	}
	t, err := time.ParseDuration(d.Search.Timeout)
	if err != nil || t < 0 {
		return 0, errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
			Value(d.Search.Timeout).
			Detail("%s: search.timeout %q", d.Source, d.Search.Timeout).
			Cause(err).
			Build()
	}
	return t, nil
}

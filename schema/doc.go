// Package schema describes the records that slotpack lays out.
//
// A Schema is an immutable, validated list of fields. Each field has a byte
// width, may be dynamic (its head takes a whole slot), may belong to a group
// of fields that must stay adjacent, and may be locked to a slot and offset
// inherited from a previously deployed layout.
//
// # Validation
//
// New rejects a field list before any packing happens:
//
//	empty list                    -> empty_schema
//	scalar width outside 1..32    -> invalid_field
//	bad lock (offset+width > 32)  -> invalid_field
//	name declared twice           -> duplicate_name
//
// Accessors return copies, so a Schema can be shared between goroutines.
package schema

// Package witimport derives storage schemas from WIT record types.
//
// Each record field becomes a schema field in declaration order. Its width
// is the Canonical ABI size of the field type: primitives keep their natural
// size, enums and flags use their discriminant or bit-vector size, and
// options, results, variants and tuples include their padding. Strings,
// lists and anything that contains them are variable length and become
// dynamic fields, as does any type larger than one slot.
//
// With Options.Flatten, a nested fixed-size record is expanded into one field
// per member ("parent.child"), grouped under the parent's name so the
// optimizer keeps the members together.
package witimport

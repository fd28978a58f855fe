// Package config reads slot layout documents.
//
// A document lists the fields of a storage record, an optional access
// profile, optional cost parameters and optional search settings. Three
// encodings are accepted, chosen by file extension:
//
//   - .lua: the file is executed and must return a table
//   - .json: a JSON object
//   - .hcl: HashiCorp configuration language, with repeated blocks for lists
//
// Example Lua document:
//
//	return {
//	  fields = {
//	    { name = "owner", width = 20 },
//	    { name = "balance", width = 32, lock = { slot = 1, offset = 0 } },
//	    { name = "tags", dynamic = true, group = "meta" },
//	  },
//	  profile = {
//	    transactions = {
//	      { name = "transfer", access = { balance = { reads = 1, writes = 1 } } },
//	    },
//	  },
//	  search = { exact_threshold = 10, timeout = "2s" },
//	}
package config

// Package operation describes and plans query pipelines over a record
// type.
//
// A request is a JSON array of operations applied in order:
//
//	[
//	  {"name": "where", "arguments": {"conditions": [...], "groups": [...]}},
//	  {"name": "orderbydescending", "arguments": "Price"},
//	  {"name": "thenby", "arguments": "Name"},
//	  {"name": "skip", "arguments": 10},
//	  {"name": "take", "arguments": 5},
//	  {"name": "select", "arguments": ["Name", "Price"]}
//	]
//
// PIPELINE:
//
//	JSON -> Parse -> []Operation -> Validate (CUE) -> Plan -> *Pipeline
//
// Parse decodes the envelope and each operation's arguments. Validate
// unifies the canonical document (see Document) with schema.cue and
// reports every violation with its path. Plan resolves member names
// against a schema.Schema, builds where predicates with the filter
// package and checks operation ordering. The resulting Pipeline is
// executed by the memory package or compiled to SQL by querysql.
package operation

// Package harness runs filter scenarios: an operation list applied to a
// product catalog, checked against expectations and run on every backend.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: in_stock_candy
//	description: "In-stock candy, cheapest first"
//	products:                 # members as text, converted like literals
//	  - Name: Snickers
//	    Price: "1.50"
//	    IsInStock: true
//	    Category: Candy
//	generate: { count: 50, seed: 3 }   # optional generated products
//	operations:
//	  - name: where
//	    arguments:
//	      conditions:
//	        - { Field: Category, Operator: Equals, Value: [Candy] }
//	  - name: orderby
//	    arguments: Price
//	expect:
//	  count: 1
//	  items: [...]            # exact presented elements, in order
//	  error: { code: FIELD_NOT_FOUND, field: Weight }
//	assertions:
//	  - type: contains
//	    item: { Name: Snickers }
//
// # Assertion Types
//
//   - contains: some element matches item (subset match)
//   - excludes: no element matches item
//   - sorted: elements are ordered by field (descending if set)
//   - count: exactly count elements match item
//
// # Backends
//
// Every scenario that plans successfully runs in memory and against an
// in-memory SQLite database. The two element lists must be identical;
// a difference fails the scenario before any expectation is checked.
//
// Generated products expire relative to testutil.Epoch, so results are
// the same on every run and can be compared with golden snapshots.
package harness

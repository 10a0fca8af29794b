package operation

import (
	"github.com/roach88/dynfilter/internal/filter"
)

// Operation is one step of a query description.
//
// This is a sealed interface - only types in this package implement it.
// Backends switch exhaustively over the planned Stages rather than over
// operations.
type Operation interface {
	// Name is the wire name of the operation.
	Name() string

	operationNode() // Marker method - seals interface to this package
}

// Wire names.
const (
	NameWhere             = "where"
	NameDistinct          = "distinct"
	NameSkip              = "skip"
	NameTake              = "take"
	NameOrderBy           = "orderby"
	NameOrderByDescending = "orderbydescending"
	NameThenBy            = "thenby"
	NameThenByDescending  = "thenbydescending"
	NameSelect            = "select"
)

// Where filters records with a predicate built from conditions and groups.
type Where struct {
	Conditions []filter.Condition
	Groups     []filter.Group
}

func (Where) Name() string { return NameWhere }

func (Where) operationNode() {}

// Distinct removes duplicate elements.
type Distinct struct{}

func (Distinct) Name() string { return NameDistinct }

func (Distinct) operationNode() {}

// Skip bypasses the first Count elements.
type Skip struct {
	Count int
}

func (Skip) Name() string { return NameSkip }

func (Skip) operationNode() {}

// Take keeps at most Count elements.
type Take struct {
	Count int
}

func (Take) Name() string { return NameTake }

func (Take) operationNode() {}

// OrderBy sorts elements by a member. An empty Field sorts by the element
// itself, which is only meaningful after a single-field Select.
type OrderBy struct {
	Field      string
	Descending bool
}

func (o OrderBy) Name() string {
	if o.Descending {
		return NameOrderByDescending
	}
	return NameOrderBy
}

func (OrderBy) operationNode() {}

// ThenBy adds a secondary sort key to the immediately preceding ordering.
type ThenBy struct {
	Field      string
	Descending bool
}

func (o ThenBy) Name() string {
	if o.Descending {
		return NameThenByDescending
	}
	return NameThenBy
}

func (ThenBy) operationNode() {}

// Select projects elements. With Single set the element becomes the value
// of the only field; otherwise it becomes a field-name keyed map.
type Select struct {
	Fields []string
	Single bool
}

func (Select) Name() string { return NameSelect }

func (Select) operationNode() {}

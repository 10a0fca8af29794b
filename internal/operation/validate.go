package operation

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/dynfilter/internal/fault"
)

//go:embed schema.cue
var schemaCUE string

var definitions = map[string]string{
	NameWhere:             "#Where",
	NameDistinct:          "#Distinct",
	NameSkip:              "#Count",
	NameTake:              "#Count",
	NameOrderBy:           "#Order",
	NameOrderByDescending: "#Order",
	NameThenBy:            "#Order",
	NameThenByDescending:  "#Order",
	NameSelect:            "#Select",
}

// validator owns the compiled schema. CUE values are not safe for
// concurrent evaluation, so every use holds mu.
type validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

var (
	sharedValidator *validator
	validatorOnce   sync.Once
	validatorErr    error
)

func loadValidator() (*validator, error) {
	validatorOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			validatorErr = fmt.Errorf("compile operation schema: %w", err)
			return
		}
		sharedValidator = &validator{ctx: ctx, schema: v}
	})
	return sharedValidator, validatorErr
}

// Validate checks ops against the operation schema: where needs at least
// one condition with a known operator, group bounds are positive with
// start <= end, skip/take counts are at least 1, and ordering/projection
// field names are not blank.
//
// Every violation is reported as a *fault.Error (CodeInvalidArgument)
// whose Field is the path into the canonical document, for example
// "operations.0.arguments.conditions.1.field". Multiple violations are
// joined.
func Validate(ops []Operation) error {
	v, err := loadValidator()
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	var problems []error
	for i, doc := range Document(ops) {
		name := ops[i].Name()
		def, ok := definitions[name]
		if !ok {
			problems = append(problems, fault.InvalidArgument(fmt.Sprintf("operations.%d.name", i), fmt.Sprintf("unknown operation %q", name)))
			continue
		}
		unified := v.schema.LookupPath(cue.ParsePath(def)).Unify(v.ctx.Encode(doc))
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			problems = append(problems, toFaults(i, err)...)
		}
	}
	return errors.Join(problems...)
}

func toFaults(index int, err error) []error {
	var out []error
	seen := make(map[string]bool)
	for _, ce := range cueerrors.Errors(err) {
		path := fmt.Sprintf("operations.%d", index)
		if p := ce.Path(); len(p) > 0 {
			path += "." + strings.Join(p, ".")
		}
		format, args := ce.Msg()
		msg := fmt.Sprintf(format, args...)
		if seen[path+msg] {
			continue
		}
		seen[path+msg] = true
		out = append(out, fault.InvalidArgument(path, msg))
	}
	if len(out) == 0 {
		out = append(out, fault.InvalidArgument(fmt.Sprintf("operations.%d", index), err.Error()))
	}
	return out
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/roach88/dynfilter/internal/catalog"
	"github.com/roach88/dynfilter/internal/operation"
)

// InputError reports operations that could not be read.
type InputError struct {
	Code    string
	Message string
	Err     error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// readInput reads a JSON operation list from path, or from stdin when
// path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, &InputError{Code: ErrCodeRead, Message: fmt.Sprintf("error reading stdin: %v", err), Err: err}
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &InputError{Code: ErrCodeNotFound, Message: fmt.Sprintf("operations file not found: %s", path), Err: err}
	}
	if err != nil {
		return nil, &InputError{Code: ErrCodeRead, Message: fmt.Sprintf("error reading operations file: %v", err), Err: err}
	}
	return data, nil
}

// loadPipeline reads and plans the operations at path against the product
// schema. Read failures become command errors; rejected operations are
// reported through f.Fault.
func loadPipeline(f *OutputFormatter, path string, stdin io.Reader) (*operation.Pipeline, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		var inErr *InputError
		errors.As(err, &inErr)
		_ = f.Error(inErr.Code, inErr.Message, nil)
		return nil, WrapExitError(ExitCommandError, inErr.Message, err)
	}

	p, err := operation.Prepare(catalog.ProductSchema, data)
	if err != nil {
		return nil, f.Fault(err)
	}
	f.VerboseLog("Planned %d stage(s) from %s", len(p.Stages), path)
	return p, nil
}

package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "field not found",
			err:  FieldNotFound("Product", "Weight"),
			want: "FIELD_NOT_FOUND: Property 'Weight' not found on type 'Product'",
		},
		{
			name: "conversion null",
			err:  Conversion("Product", "Price", "null", nil),
			want: "CONVERSION: Property 'Price' from type 'Product' is not compatible with null",
		},
		{
			name: "conversion with cause",
			err:  Conversion("Product", "Price", "value 'abc'", errors.New("bad digit")),
			want: "CONVERSION: Property 'Price' from type 'Product' is not compatible with value 'abc': bad digit",
		},
		{
			name: "unsupported operator",
			err:  UnsupportedOperator("Greater", "Name", "string"),
			want: "UNSUPPORTED_OPERATOR: Operator 'Greater' is not supported for property 'Name' of type 'string'",
		},
		{
			name: "invalid logic sequence",
			err:  InvalidLogicSequence(2, "None"),
			want: `INVALID_LOGIC_SEQUENCE: node 2 has logic operator "None", expected And or Or`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsHelpers_Wrapped(t *testing.T) {
	err := fmt.Errorf("where: %w", InvalidGroupRange("group %d out of range", 3))

	assert.True(t, IsFault(err))
	assert.True(t, IsInvalidGroupRange(err))
	assert.False(t, IsConversion(err))
	assert.Equal(t, CodeInvalidGroupRange, CodeOf(err))

	assert.False(t, IsFault(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestIsHelpers_AllCodes(t *testing.T) {
	assert.True(t, IsFieldNotFound(FieldNotFound("T", "f")))
	assert.True(t, IsConversion(Conversion("T", "f", "null", nil)))
	assert.True(t, IsUnsupportedOperator(UnsupportedOperator("Any", "f", "bool")))
	assert.True(t, IsInvalidLogicSequence(InvalidLogicSequence(1, "")))
	assert.True(t, IsInvalidArgument(InvalidArgument("count", "must be positive")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Conversion("T", "f", "empty string", cause)
	require.ErrorIs(t, err, cause)
}

func TestFields(t *testing.T) {
	fields := Fields(fmt.Errorf("wrap: %w", InvalidArgument("count", "must be at least 1")))
	require.NotNil(t, fields)
	assert.Equal(t, []string{"must be at least 1"}, fields["count"])

	assert.Nil(t, Fields(errors.New("plain")))
	assert.Nil(t, Fields(InvalidLogicSequence(1, "")))
}

func TestFields_Joined(t *testing.T) {
	err := errors.Join(
		InvalidArgument("operations.0.arguments", "must be at least 1"),
		errors.New("plain"),
		InvalidArgument("operations.0.arguments", "conflicting values"),
		InvalidArgument("operations.2.name", "unknown operation"),
	)

	fields := Fields(err)
	require.Len(t, fields, 2)
	assert.Equal(t, []string{"must be at least 1", "conflicting values"}, fields["operations.0.arguments"])
	assert.Equal(t, []string{"unknown operation"}, fields["operations.2.name"])
}

package primitive_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scim-patch/primitive"
)

func Example() {
	type IntEnum int
	type StringEnum string
	type Empty struct{}

	fmt.Println(primitive.FromReflectType(reflect.TypeOf(int(0))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf("")))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(IntEnum(0))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(StringEnum(""))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(time.Duration(0))))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(time.Time{})))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(&time.Time{})))
	fmt.Println(primitive.FromReflectType(reflect.TypeOf(Empty{})))
	// Output:
	// KindInt
	// KindString
	// KindInt
	// KindPrimitiveEnum
	// KindDuration
	// KindTime
	// KindTime
	// KindEnum(0)
}

func TestKindEnum_Predicates(t *testing.T) {
	tests := []struct {
		kind     primitive.KindEnum
		number   bool
		integer  bool
		float    bool
		unsigned bool
		ordered  bool
	}{
		{primitive.KindInt, true, true, false, false, true},
		{primitive.KindUint16, true, true, false, true, true},
		{primitive.KindFloat64, true, false, true, false, true},
		{primitive.KindBool, false, false, false, false, false},
		{primitive.KindString, false, false, false, false, true},
		{primitive.KindTime, false, false, false, false, true},
		{primitive.KindPrimitiveEnum, false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.number, tt.kind.IsNumber())
			assert.Equal(t, tt.integer, tt.kind.IsInteger())
			assert.Equal(t, tt.float, tt.kind.IsFloat())
			assert.Equal(t, tt.unsigned, tt.kind.IsUnsigned())
			assert.Equal(t, tt.ordered, tt.kind.IsOrdered())
		})
	}
}

func TestUnderlying(t *testing.T) {
	type Status string
	type Flag bool

	assert.Equal(t, primitive.KindString, primitive.Underlying(reflect.TypeOf(Status(""))))
	assert.Equal(t, primitive.KindBool, primitive.Underlying(reflect.TypeOf(Flag(false))))
	assert.Equal(t, primitive.KindInt64, primitive.Underlying(reflect.TypeOf(int64(0))))
	assert.Equal(t, primitive.KindEnum(0), primitive.Underlying(nil))
}

// Package dispatch routes kernel operations to device- and dtype-specialized
// implementations through lookup tables populated at init time. Operator
// logic resolves one key per call and never branches on device or dtype in
// the hot path; adding a device backend means adding registrations.
package dispatch

import (
	"fmt"

	"github.com/weft-ml/weft/internal/tensor"
)

// Key identifies one specialization: a compute device paired with a
// numeric kind.
type Key struct {
	Device tensor.Device
	DType  tensor.DataType
}

// String formats the key as "device/dtype".
func (k Key) String() string {
	return k.Device.String() + "/" + k.DType.String()
}

// Table holds one operation's specializations. Entries are registered from
// package init functions, one registration site per device file, and the
// table is read-only afterwards, so lookups need no locking.
type Table[F any] struct {
	op    string
	impls map[Key]F
}

// NewTable creates an empty specialization table for the named operation.
// The name appears in error annotations.
func NewTable[F any](op string) *Table[F] {
	return &Table[F]{op: op, impls: make(map[Key]F)}
}

// Register binds an implementation to a (device, dtype) pair, replacing any
// previous entry. Call it from package init only.
func (t *Table[F]) Register(device tensor.Device, dtype tensor.DataType, impl F) {
	t.impls[Key{Device: device, DType: dtype}] = impl
}

// Lookup returns the implementation registered for key, or ErrUnsupported
// when the combination has none.
func (t *Table[F]) Lookup(key Key) (F, error) {
	impl, ok := t.impls[key]
	if !ok {
		var zero F
		return zero, fmt.Errorf("%s: no %s implementation: %w", t.op, key, tensor.ErrUnsupported)
	}
	return impl, nil
}

// Resolve derives the dispatch key from the operands that are present.
// Empty tensors are skipped; optional operands do not constrain dispatch.
// All present operands must agree on device and dtype; disagreement, or no
// present operand at all, is a caller error.
func Resolve(operands ...*tensor.Tensor) (Key, error) {
	var key Key
	found := false
	for _, op := range operands {
		if op.IsEmpty() {
			continue
		}
		k := Key{Device: op.Device(), DType: op.DType()}
		if !found {
			key = k
			found = true
			continue
		}
		if k != key {
			return Key{}, fmt.Errorf("operands disagree on device/dtype: %s vs %s: %w", key, k, tensor.ErrInvalidArgument)
		}
	}
	if !found {
		return Key{}, fmt.Errorf("no operands present: %w", tensor.ErrInvalidArgument)
	}
	return key, nil
}

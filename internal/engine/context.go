// Package engine owns the execution context shared by kernel operations:
// per-device linear-algebra backends, the lazily grown all-ones broadcast
// buffer, and last-error bookkeeping for diagnostics.
package engine

import (
	"fmt"

	"github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/internal/tensor"
)

// Context carries the state kernel operations share: which backend serves
// each device, the all-ones cache used for bias broadcast, and the most
// recent failure. A Context is not safe for concurrent use: operations
// issued against the same context must be serialized by the caller, which
// also keeps the cache's grow-on-demand step single-writer.
type Context struct {
	backends map[tensor.Device]tensor.Backend
	ones     map[onesKey]*tensor.Tensor
	lastErr  error
}

type onesKey struct {
	device tensor.Device
	dtype  tensor.DataType
}

// New creates a context with the CPU backend registered. Additional
// backends (such as WebGPU) are attached with Register.
func New() *Context {
	ctx := &Context{
		backends: make(map[tensor.Device]tensor.Backend),
		ones:     make(map[onesKey]*tensor.Tensor),
	}
	ctx.Register(cpu.New())
	return ctx
}

// Register attaches a backend, replacing any previous backend serving the
// same device.
func (c *Context) Register(be tensor.Backend) {
	c.backends[be.Device()] = be
}

// Backend returns the backend serving device, or ErrUnsupported when none
// is registered.
func (c *Context) Backend(device tensor.Device) (tensor.Backend, error) {
	be, ok := c.backends[device]
	if !ok {
		return nil, fmt.Errorf("no backend registered for %s: %w", device, tensor.ErrUnsupported)
	}
	return be, nil
}

// AllOnes returns a tensor holding at least n ones for the given device and
// numeric kind. The buffer is cached per (device, dtype) and grows
// monotonically: a request longer than the cached buffer reallocates and
// refills it, after which reuse is read-only. Callers must not write
// through the returned tensor.
func (c *Context) AllOnes(device tensor.Device, dtype tensor.DataType, n int) (*tensor.Tensor, error) {
	if n <= 0 {
		return nil, fmt.Errorf("all-ones buffer of length %d: %w", n, tensor.ErrInvalidArgument)
	}
	key := onesKey{device: device, dtype: dtype}
	if cached, ok := c.ones[key]; ok && cached.NumElements() >= n {
		return cached, nil
	}

	t, err := tensor.New(tensor.Shape{n}, dtype, device)
	if err != nil {
		return nil, fmt.Errorf("all-ones buffer: %w", err)
	}
	switch dtype {
	case tensor.Float64:
		for i, data := 0, t.AsFloat64(); i < n; i++ {
			data[i] = 1
		}
	default:
		for i, data := 0, t.AsFloat32(); i < n; i++ {
			data[i] = 1
		}
	}
	c.ones[key] = t
	return t, nil
}

// Fail records err, annotated with the failing operation, as the context's
// last error and returns the annotated error. Kernel operations route
// failures through it so LastError reports the most recent one. The
// annotation wraps with %w, so the error kind is never changed.
func (c *Context) Fail(op string, err error) error {
	return c.Record(fmt.Errorf("%s: %w", op, err))
}

// Record notes an already-annotated error as the context's last error and
// returns it unchanged.
func (c *Context) Record(err error) error {
	c.lastErr = err
	return err
}

// LastError returns the most recently recorded failure, or nil.
func (c *Context) LastError() error {
	return c.lastErr
}

// ClearLastError resets the error bookkeeping.
func (c *Context) ClearLastError() {
	c.lastErr = nil
}

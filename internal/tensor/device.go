package tensor

// Device represents the compute device a tensor is bound to.
type Device int

// Supported compute devices. CPU and WebGPU have backends in this
// repository; dispatching an operation to any other device reports
// ErrUnsupported.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

//go:build windows

package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/weft-ml/weft/internal/tensor"
)

// Verify that Backend implements the facade.
var _ tensor.Backend = (*Backend)(nil)

// Backend runs the device kernels as compute dispatches. Shader modules
// and pipelines are compiled on first use and cached for the backend's
// lifetime; data buffers are created per call and released when the
// dispatch has been read back.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	adapterInfo *wgpu.AdapterInfo
}

// New creates a WebGPU backend on the system's high-performance adapter.
// Initialization failures report ErrBackendFailure; a missing native
// library reports ErrUnsupported.
func New() (backend *Backend, err error) {
	// The wgpu bindings panic when the native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v: %w", r, tensor.ErrUnsupported)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: request adapter: %v: %w", adapterErr, tensor.ErrBackendFailure)
	}

	adapterInfo := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: request device: %v: %w", deviceErr, tensor.ErrBackendFailure)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: no queue on device: %w", tensor.ErrBackendFailure)
	}

	return &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		adapterInfo: &adapterInfo,
	}, nil
}

// Release frees all WebGPU resources. The backend must not be used after.
func (gpu *Backend) Release() {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()

	for _, p := range gpu.pipelines {
		p.Release()
	}
	gpu.pipelines = nil

	for _, s := range gpu.shaders {
		s.Release()
	}
	gpu.shaders = nil

	if gpu.queue != nil {
		gpu.queue.Release()
		gpu.queue = nil
	}
	if gpu.device != nil {
		gpu.device.Release()
		gpu.device = nil
	}
	if gpu.adapter != nil {
		gpu.adapter.Release()
		gpu.adapter = nil
	}
	if gpu.instance != nil {
		gpu.instance.Release()
		gpu.instance = nil
	}
}

// Name returns the backend name, including the adapter when known.
func (gpu *Backend) Name() string {
	if gpu.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", gpu.adapterInfo.Name, gpu.adapterInfo.VendorName)
	}
	return "WebGPU"
}

// Device returns the compute device.
func (gpu *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if the native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// compileShader compiles WGSL shader code into a ShaderModule. Results
// are cached in the Backend's shaders map.
func (gpu *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	gpu.mu.RLock()
	if shader, exists := gpu.shaders[name]; exists {
		gpu.mu.RUnlock()
		return shader
	}
	gpu.mu.RUnlock()

	shader := gpu.device.CreateShaderModuleWGSL(code)

	gpu.mu.Lock()
	gpu.shaders[name] = shader
	gpu.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new
// one with auto layout.
func (gpu *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	gpu.mu.RLock()
	if pipeline, exists := gpu.pipelines[name]; exists {
		gpu.mu.RUnlock()
		return pipeline
	}
	gpu.mu.RUnlock()

	pipeline := gpu.device.CreateComputePipelineSimple(nil, shader, "main")

	gpu.mu.Lock()
	gpu.pipelines[name] = pipeline
	gpu.mu.Unlock()

	return pipeline
}

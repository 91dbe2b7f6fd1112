// Package gpu provides optional WebGPU acceleration for the truncated-space
// forward pass: a single compute kernel applying a complex matrix to a batch
// of state vectors. The CPU path in package cv remains the reference
// semantics; this kernel works in float32 and is only worth dispatching for
// large cutoffs or batches.
package gpu

import (
	"fmt"
	"sync"

	"github.com/openfluke/webgpu/wgpu"
)

// Context holds the single WebGPU context for the process.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	once     sync.Once
}

var ctx Context

// GetContext returns the singleton GPU context, initializing it on first use.
func GetContext() (*Context, error) {
	var initErr error
	ctx.once.Do(func() {
		ctx.Instance = wgpu.CreateInstance(nil)
		if ctx.Instance == nil {
			initErr = fmt.Errorf("failed to create WebGPU instance")
			return
		}

		ctx.Adapter, initErr = ctx.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			PowerPreference: wgpu.PowerPreferenceHighPerformance,
		})
		if ctx.Adapter == nil {
			// Fall back to whatever adapter the platform offers.
			ctx.Adapter, initErr = ctx.Instance.RequestAdapter(nil)
		}
		if ctx.Adapter == nil {
			initErr = fmt.Errorf("no WebGPU adapter available: %v", initErr)
			return
		}

		var err error
		ctx.Device, err = ctx.Adapter.RequestDevice(nil)
		if err != nil {
			initErr = err
			return
		}
		ctx.Queue = ctx.Device.GetQueue()
	})

	if initErr != nil {
		return nil, initErr
	}
	if ctx.Device == nil || ctx.Queue == nil {
		return nil, fmt.Errorf("WebGPU device or queue not initialized")
	}
	return &ctx, nil
}

// Ensure initializes the GPU context, reporting whether a device is usable.
func Ensure() error {
	_, err := GetContext()
	return err
}

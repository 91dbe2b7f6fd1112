package gpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

// Complex values travel as interleaved float32 pairs (re, im); the shader
// reads them as vec2<f32>.

type applyPipeline struct {
	pipeline        *wgpu.ComputePipeline
	bindGroupLayout *wgpu.BindGroupLayout
}

var (
	pipelineMu    sync.Mutex
	pipelineCache = map[int]*applyPipeline{}
)

func shaderSource(n int) string {
	return fmt.Sprintf(`
		@group(0) @binding(0) var<storage, read> input : array<vec2<f32>>;
		@group(0) @binding(1) var<storage, read_write> output : array<vec2<f32>>;
		@group(0) @binding(2) var<storage, read> matrix : array<vec2<f32>>;

		fn cmul(a: vec2<f32>, b: vec2<f32>) -> vec2<f32> {
			return vec2<f32>(a.x * b.x - a.y * b.y, a.x * b.y + a.y * b.x);
		}

		@compute @workgroup_size(64)
		fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
			let idx = gid.x;
			let n = %du;
			if (idx >= arrayLength(&output)) {
				return;
			}

			// idx = sample_idx * n + row
			let sample_idx = idx / n;
			let row = idx %% n;

			var sum = vec2<f32>(0.0, 0.0);
			let mat_offset = row * n;
			let in_offset = sample_idx * n;
			for (var j: u32 = 0u; j < n; j++) {
				sum += cmul(matrix[mat_offset + j], input[in_offset + j]);
			}
			output[idx] = sum;
		}
	`, n)
}

func getPipeline(c *Context, n int) (*applyPipeline, error) {
	pipelineMu.Lock()
	defer pipelineMu.Unlock()
	if p, ok := pipelineCache[n]; ok {
		return p, nil
	}

	module, err := c.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          fmt.Sprintf("CMatApply%d_Shader", n),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderSource(n)},
	})
	if err != nil {
		return nil, fmt.Errorf("shader compile: %v", err)
	}

	bgl, err := c.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "CMatApply_BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
			{Binding: 1, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
			{Binding: 2, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bgl: %v", err)
	}

	layout, err := c.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "CMatApply_Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout: %v", err)
	}

	pipe, err := c.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "CMatApply_Pipe",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline create: %v", err)
	}
	module.Release()

	p := &applyPipeline{pipeline: pipe, bindGroupLayout: bgl}
	pipelineCache[n] = p
	return p, nil
}

func interleave(batch [][]complex128, n int) []float32 {
	out := make([]float32, 0, len(batch)*n*2)
	for _, state := range batch {
		for _, v := range state {
			out = append(out, float32(real(v)), float32(imag(v)))
		}
	}
	return out
}

func interleaveMatrix(m []complex128) []float32 {
	out := make([]float32, 0, len(m)*2)
	for _, v := range m {
		out = append(out, float32(real(v)), float32(imag(v)))
	}
	return out
}

// ApplyLayers applies each n×n matrix in mats, in order, to every state in
// the batch, entirely on the GPU, and reads the final states back. Matrices
// are uploaded one at a time; the two state buffers ping-pong between layers.
func ApplyLayers(n int, mats [][]complex128, batch [][]complex128) ([][]complex128, error) {
	c, err := GetContext()
	if err != nil {
		return nil, err
	}
	p, err := getPipeline(c, n)
	if err != nil {
		return nil, err
	}

	stateFloats := uint64(len(batch) * n * 2)
	stateBytes := stateFloats * 4

	bufA, err := c.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Contents: wgpu.ToBytes(interleave(batch, n)),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("state buffer A: %v", err)
	}
	defer bufA.Destroy()

	bufB, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "CMatApply_StateB",
		Size:  stateBytes,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("state buffer B: %v", err)
	}
	defer bufB.Destroy()

	matBuf, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "CMatApply_Matrix",
		Size:  uint64(n * n * 2 * 4),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("matrix buffer: %v", err)
	}
	defer matBuf.Destroy()

	makeBind := func(in, out *wgpu.Buffer) (*wgpu.BindGroup, error) {
		return c.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "CMatApply_Bind",
			Layout: p.bindGroupLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: in, Size: in.GetSize()},
				{Binding: 1, Buffer: out, Size: out.GetSize()},
				{Binding: 2, Buffer: matBuf, Size: matBuf.GetSize()},
			},
		})
	}
	bindAB, err := makeBind(bufA, bufB)
	if err != nil {
		return nil, fmt.Errorf("bind group: %v", err)
	}
	defer bindAB.Release()
	bindBA, err := makeBind(bufB, bufA)
	if err != nil {
		return nil, fmt.Errorf("bind group: %v", err)
	}
	defer bindBA.Release()

	workgroups := (uint32(len(batch)*n) + 63) / 64
	src := bufA
	for i, m := range mats {
		c.Queue.WriteBuffer(matBuf, 0, wgpu.ToBytes(interleaveMatrix(m)))

		encoder, err := c.Device.CreateCommandEncoder(nil)
		if err != nil {
			return nil, fmt.Errorf("command encoder: %v", err)
		}
		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(p.pipeline)
		if src == bufA {
			pass.SetBindGroup(0, bindAB, nil)
		} else {
			pass.SetBindGroup(0, bindBA, nil)
		}
		pass.DispatchWorkgroups(workgroups, 1, 1)
		pass.End()
		cmd, err := encoder.Finish(nil)
		if err != nil {
			return nil, fmt.Errorf("encoder finish (layer %d): %v", i, err)
		}
		c.Queue.Submit(cmd)

		if src == bufA {
			src = bufB
		} else {
			src = bufA
		}
	}

	raw, err := readBuffer(c, src, int(stateFloats))
	if err != nil {
		return nil, err
	}

	out := make([][]complex128, len(batch))
	for b := range out {
		state := make([]complex128, n)
		for k := 0; k < n; k++ {
			off := (b*n + k) * 2
			state[k] = complex(float64(raw[off]), float64(raw[off+1]))
		}
		out[b] = state
	}
	return out, nil
}

// readBuffer copies a storage buffer into a staging buffer, maps it and
// returns the float32 contents.
func readBuffer(c *Context, buffer *wgpu.Buffer, size int) ([]float32, error) {
	sizeBytes := uint64(size * 4)
	staging, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "CMatApply_ReadStaging",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("staging buffer: %v", err)
	}
	defer staging.Destroy()

	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("command encoder: %v", err)
	}
	encoder.CopyBufferToBuffer(buffer, 0, staging, 0, sizeBytes)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("encoder finish: %v", err)
	}
	c.Queue.Submit(cmd)

	done := make(chan struct{})
	var mapErr error
	err = staging.MapAsync(wgpu.MapModeRead, 0, sizeBytes, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("map failed: %v", status)
		}
		close(done)
	})
	if err != nil {
		return nil, fmt.Errorf("MapAsync failed: %v", err)
	}

	timeout := time.After(2 * time.Second)
Loop:
	for {
		c.Device.Poll(false, nil)
		select {
		case <-done:
			break Loop
		case <-timeout:
			return nil, fmt.Errorf("readBuffer timed out after 2s")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if mapErr != nil {
		return nil, mapErr
	}

	data := staging.GetMappedRange(0, uint(sizeBytes))
	if data == nil {
		return nil, fmt.Errorf("failed to get mapped range")
	}
	result := make([]float32, size)
	copy(result, wgpu.FromBytes[float32](data))
	staging.Unmap()
	return result, nil
}

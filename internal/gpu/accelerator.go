//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	"go.trai.ch/zerr"

	"github.com/gogpu/recolor"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Accelerator runs the statistics transfer on a wgpu/hal device. It
// implements recolor.Accelerator.
//
// Init never fails: without a usable adapter the accelerator stays
// registered but unavailable, so a device supplied later through
// SetDeviceProvider can enable it.
type Accelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	ready          bool
	lost           bool
	externalDevice bool // shared device, not destroyed on Close
}

var _ recolor.Accelerator = (*Accelerator)(nil)

func (a *Accelerator) Name() string { return "wgpu" }

func (a *Accelerator) CanAccelerate(op recolor.AcceleratedOp) bool {
	return op&recolor.AccelHistogram != 0
}

// SetLogger receives the logger propagated by recolor.SetLogger.
func (a *Accelerator) SetLogger(l *slog.Logger) { setLogger(l) }

func (a *Accelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.initGPU(); err != nil {
		slogger().Warn("gpu init failed, transfers run on cpu", "err", err)
	}
	return nil
}

// Available reports whether a device is open and has not been lost.
func (a *Accelerator) Available() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready && !a.lost
}

func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipeline()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.ready = false
	a.lost = false
	a.externalDevice = false
}

// SetDeviceProvider switches the accelerator to a device shared by the
// host. The provider must expose HalDevice() and HalQueue() returning
// hal.Device and hal.Queue.
func (a *Accelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return zerr.Wrap(recolor.ErrBackend, "device provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return zerr.Wrap(recolor.ErrBackend, "provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return zerr.Wrap(recolor.ErrBackend, "provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipeline()
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}

	a.device = device
	a.queue = queue
	a.externalDevice = true
	a.lost = false

	if err := a.createPipeline(); err != nil {
		a.ready = false
		return zerr.Wrap(errors.Join(recolor.ErrBackend, err), "create pipeline with shared device")
	}
	a.ready = true
	slogger().Info("gpu accelerator switched to shared device")
	return nil
}

// ApplyTransfer uploads src, runs the transfer pass and returns the
// result held in a staging buffer.
func (a *Accelerator) ApplyTransfer(src *recolor.Pixmap, t recolor.StatTransfer) (recolor.GPUImage, error) {
	if src.IsEmpty() {
		return nil, zerr.Wrap(recolor.ErrEmptyBuffer, "gpu transfer source is empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ready || a.lost {
		return nil, recolor.ErrFallbackToCPU
	}

	img, err := a.run(src, t)
	if err != nil {
		if errors.Is(err, hal.ErrDeviceLost) {
			a.lost = true
			slogger().Warn("gpu device lost")
		}
		return nil, zerr.Wrap(errors.Join(recolor.ErrBackend, err), "gpu transfer")
	}
	return img, nil
}

func (a *Accelerator) run(src *recolor.Pixmap, t recolor.StatTransfer) (*image, error) {
	w, h := src.Width(), src.Height()
	n := w * h
	size := uint64(n) * 4 //nolint:gosec // n is positive
	g := gridFor(n)

	uniform, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "recolor_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	defer a.device.DestroyBuffer(uniform)

	storage, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "recolor_pixels", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage buffer: %w", err)
	}
	defer a.device.DestroyBuffer(storage)

	staging, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "recolor_staging", Size: size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	keep := false
	defer func() {
		if !keep {
			a.device.DestroyBuffer(staging)
		}
	}()

	if err := a.queue.WriteBuffer(uniform, 0, packParams(t, n, g)); err != nil {
		return nil, fmt.Errorf("write params: %w", err)
	}
	if err := a.queue.WriteBuffer(storage, 0, packPixels(src.Data(), n)); err != nil {
		return nil, fmt.Errorf("upload pixels: %w", err)
	}

	bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "recolor_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniform.NativeHandle(), Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: storage.NativeHandle(), Size: size}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bg)

	if err := a.submit(bg, g, storage, staging, size); err != nil {
		return nil, err
	}
	keep = true
	return &image{acc: a, staging: staging, size: size, width: w, height: h}, nil
}

func (a *Accelerator) submit(bg hal.BindGroup, g grid, storage, staging hal.Buffer, size uint64) error {
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "recolor_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("recolor_transfer"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "recolor_transfer"})
	pass.SetPipeline(a.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(g.groupsX, g.groupsY, 1)
	pass.End()

	encoder.CopyBufferToBuffer(storage, staging, []hal.BufferCopy{{Size: size}})
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmd)

	if _, err := a.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := a.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for gpu: %w", err)
	}
	return nil
}

func (a *Accelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Backends: gputypes.BackendsVulkan})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	dev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = dev.Device
	a.queue = dev.Queue
	if err := a.createPipeline(); err != nil {
		a.device.Destroy()
		a.device = nil
		a.queue = nil
		return fmt.Errorf("create pipeline: %w", err)
	}
	a.ready = true
	slogger().Info("gpu accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *Accelerator) createPipeline() error {
	spirv, err := compileShader(transferShaderSource)
	if err != nil {
		return err
	}
	shader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "recolor_transfer",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}
	a.shader = shader

	a.bindLayout, err = a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "recolor_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	a.pipeLayout, err = a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "recolor_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	a.pipeline, err = a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "recolor_transfer", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	return nil
}

func (a *Accelerator) destroyPipeline() {
	if a.device == nil {
		return
	}
	if a.pipeline != nil {
		a.device.DestroyComputePipeline(a.pipeline)
		a.pipeline = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
	if a.shader != nil {
		a.device.DestroyShaderModule(a.shader)
		a.shader = nil
	}
}

// compileShader compiles WGSL to little-endian SPIR-V words.
func compileShader(source string) ([]uint32, error) {
	b, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return words, nil
}

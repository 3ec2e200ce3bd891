package gpu

import _ "embed"

//go:embed shaders/transfer.wgsl
var transferShaderSource string

// workgroupSize matches @workgroup_size in transfer.wgsl.
const workgroupSize = 64

// maxGroupsPerDim is the WebGPU default for maxComputeWorkgroupsPerDimension.
const maxGroupsPerDim = 65535

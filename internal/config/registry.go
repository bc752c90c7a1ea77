package config

import "sort"

// Known compile targets. The triple selects the SPIR-V version and execution
// environment the produced modules are validated against.
var knownTargets = map[string]bool{
	"spirv-unknown-spv1.0":          true,
	"spirv-unknown-spv1.1":          true,
	"spirv-unknown-spv1.2":          true,
	"spirv-unknown-spv1.3":          true,
	"spirv-unknown-spv1.4":          true,
	"spirv-unknown-spv1.5":          true,
	"spirv-unknown-spv1.6":          true,
	"spirv-unknown-vulkan1.0":       true,
	"spirv-unknown-vulkan1.1":       true,
	"spirv-unknown-vulkan1.1spv1.4": true,
	"spirv-unknown-vulkan1.2":       true,
	"spirv-unknown-vulkan1.3":       true,
	"spirv-unknown-vulkan1.4":       true,
	"spirv-unknown-opengl4.5":       true,
}

// SpirvMetadata levels accepted by the backend.
var knownMetadataLevels = map[string]bool{
	"none":           true,
	"name-variables": true,
	"full":           true,
}

// Optional SPIR-V capabilities that can be enabled per build. This mirrors
// the set the backend accepts; anything else is rejected before the compiler
// ever runs.
var knownCapabilities = map[string]bool{
	"Matrix":                            true,
	"Shader":                            true,
	"Geometry":                          true,
	"Tessellation":                      true,
	"Addresses":                         true,
	"Linkage":                           true,
	"Kernel":                            true,
	"Float16":                           true,
	"Float64":                           true,
	"Int64":                             true,
	"Int64Atomics":                      true,
	"AtomicStorage":                     true,
	"Int16":                             true,
	"ImageGatherExtended":               true,
	"StorageImageMultisample":           true,
	"UniformBufferArrayDynamicIndexing": true,
	"SampledImageArrayDynamicIndexing":  true,
	"StorageBufferArrayDynamicIndexing": true,
	"StorageImageArrayDynamicIndexing":  true,
	"ClipDistance":                      true,
	"CullDistance":                      true,
	"ImageCubeArray":                    true,
	"SampleRateShading":                 true,
	"ImageRect":                         true,
	"SampledRect":                       true,
	"InputAttachment":                   true,
	"SparseResidency":                   true,
	"MinLod":                            true,
	"Sampled1D":                         true,
	"Image1D":                           true,
	"SampledCubeArray":                  true,
	"SampledBuffer":                     true,
	"ImageBuffer":                       true,
	"ImageMSArray":                      true,
	"StorageImageExtendedFormats":       true,
	"ImageQuery":                        true,
	"DerivativeControl":                 true,
	"InterpolationFunction":             true,
	"TransformFeedback":                 true,
	"GeometryStreams":                   true,
	"StorageImageReadWithoutFormat":     true,
	"StorageImageWriteWithoutFormat":    true,
	"MultiViewport":                     true,
	"SubgroupDispatch":                  true,
	"PipeStorage":                       true,
	"GroupNonUniform":                   true,
	"GroupNonUniformVote":               true,
	"GroupNonUniformArithmetic":         true,
	"GroupNonUniformBallot":             true,
	"GroupNonUniformShuffle":            true,
	"GroupNonUniformQuad":               true,
	"ShaderLayer":                       true,
	"ShaderViewportIndex":               true,
	"UniformDecoration":                 true,
	"FragmentShadingRateKHR":            true,
	"DrawParameters":                    true,
	"WorkgroupMemoryExplicitLayoutKHR":  true,
	"StorageBuffer16BitAccess":          true,
	"StorageUniform16":                  true,
	"StoragePushConstant16":             true,
	"StorageInputOutput16":              true,
	"DeviceGroup":                       true,
	"MultiView":                         true,
	"VariablePointersStorageBuffer":     true,
	"VariablePointers":                  true,
	"AtomicStorageOps":                  true,
	"SampleMaskPostDepthCoverage":       true,
	"StorageBuffer8BitAccess":           true,
	"UniformAndStorageBuffer8BitAccess": true,
	"StoragePushConstant8":              true,
	"DenormPreserve":                    true,
	"DenormFlushToZero":                 true,
	"SignedZeroInfNanPreserve":          true,
	"RoundingModeRTE":                   true,
	"RoundingModeRTZ":                   true,
	"RayQueryKHR":                       true,
	"RayTraversalPrimitiveCullingKHR":   true,
	"RayTracingKHR":                     true,
	"Int8":                              true,
	"ShaderClockKHR":                    true,
	"ShaderNonUniform":                  true,
	"RuntimeDescriptorArray":            true,
	"VulkanMemoryModel":                 true,
	"PhysicalStorageBufferAddresses":    true,
	"ComputeDerivativeGroupQuadsKHR":    true,
	"ComputeDerivativeGroupLinearKHR":   true,
	"MeshShadingEXT":                    true,
	"FragmentBarycentricKHR":            true,
	"DemoteToHelperInvocation":          true,
	"IntegerFunctions2INTEL":            true,
	"AtomicFloat32AddEXT":               true,
	"AtomicFloat64AddEXT":               true,
	"AtomicFloat16AddEXT":               true,
	"AtomicFloat16MinMaxEXT":            true,
	"AtomicFloat32MinMaxEXT":            true,
	"AtomicFloat64MinMaxEXT":            true,
}

// Targets returns the sorted list of known target triples. Used by the show
// command.
func Targets() []string {
	return sortedKeys(knownTargets)
}

// CapabilityNames returns the sorted list of accepted capability names.
func CapabilityNames() []string {
	return sortedKeys(knownCapabilities)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

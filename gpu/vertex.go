package gpu

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	vm "surface3d/vector_math"
)

type Vec3f struct {
	X, Y, Z float32
}

type Vec2f struct {
	X, Y float32
}

func toVec3f(v vm.Vec3) Vec3f {
	return Vec3f{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// Vertex is the interleaved layout the mesh is uploaded with.
// 12 + 12 + 8 = 32 Byte, no padding.
type Vertex struct {
	Pos      Vec3f
	Normal   Vec3f
	TexCoord Vec2f
}

func BindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}
}

func AttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Location: 0,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Location: 1,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Normal)),
		},
		{
			Location: 2,
			Binding:  0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.TexCoord)),
		},
	}
}

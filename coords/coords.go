// Package coords converts positions between the four coordinate spaces used by the viewer.
//
//   - Raw screen: pixels, (0, 0) at the top-left of the surface.
//   - Normalized screen: pixels, (0, 0) at the centre of the surface, y up.
//   - Normalized offset: pan displacement in pixels. Positive x moves the centre
//     right (the picture shifts left), positive y moves the centre down.
//   - World: the coordinates the fractal is evaluated in.
//
// None of the functions validate their input; callers must never pass a
// dimension or scale with a zero component.
package coords

import "github.com/go-gl/mathgl/mgl64"

// RawScreenToNormal converts a raw screen position to a normalized screen position.
func RawScreenToNormal(raw, dim mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		raw[0] - dim[0]/2,
		-(raw[1] + dim[1]/2),
	}
}

// NormalToRawScreen is the inverse of RawScreenToNormal.
func NormalToRawScreen(normal, dim mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		normal[0] + dim[0]/2,
		-normal[1] - dim[1]/2,
	}
}

// RawOffsetToNormal converts a raw pointer delta into a normalized offset delta.
// Only x is mirrored.
func RawOffsetToNormal(rawOffset mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-rawOffset[0], rawOffset[1]}
}

// NormalToWorld converts a normalized screen position to a world position.
func NormalToWorld(screen, scale, dim, offset mgl64.Vec2) mgl64.Vec2 {
	return mulElem(divElem(screen.Add(offset), dim), scale)
}

// WorldToNormal is the inverse of NormalToWorld.
func WorldToNormal(world, scale, dim, offset mgl64.Vec2) mgl64.Vec2 {
	return mulElem(divElem(world, scale), dim).Sub(offset)
}

// OffsetToWorld converts a normalized offset into a world offset.
// An offset is measured against half the viewport, so the result is doubled.
func OffsetToWorld(offset, scale, dim mgl64.Vec2) mgl64.Vec2 {
	return NormalToWorld(offset, scale, dim, mgl64.Vec2{}).Mul(2)
}

// WorldToOffset is the inverse of OffsetToWorld.
func WorldToOffset(world, scale, dim mgl64.Vec2) mgl64.Vec2 {
	return WorldToNormal(world.Mul(0.5), scale, dim, mgl64.Vec2{})
}

// ClientToNormal converts a pointer position in client coordinates
// (top-left origin, y down) to a normalized screen position.
func ClientToNormal(client, dim mgl64.Vec2) mgl64.Vec2 {
	return RawScreenToNormal(mgl64.Vec2{client[0], client[1] - dim[1]}, dim)
}

// NormalToClient is the inverse of ClientToNormal.
func NormalToClient(normal, dim mgl64.Vec2) mgl64.Vec2 {
	raw := NormalToRawScreen(normal, dim)
	return mgl64.Vec2{raw[0], raw[1] + dim[1]}
}

func mulElem(a, b mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{a[0] * b[0], a[1] * b[1]}
}

func divElem(a, b mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{a[0] / b[0], a[1] / b[1]}
}

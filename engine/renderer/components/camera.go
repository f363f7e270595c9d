package components

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spaghettifunk/raycast/engine/core"
)

// Corner indices into Frustum.Corners.
const (
	Corner00 = iota // NDC (-1,-1)
	Corner01        // NDC (-1, 1)
	Corner10        // NDC ( 1,-1)
	Corner11        // NDC ( 1, 1)
)

// ndcCorners are the screen corners at depth 0 in the order the kernel
// expects them (ray00, ray01, ray10, ray11).
var ndcCorners = [4]mgl64.Vec4{
	{-1, -1, 0, 1},
	{-1, 1, 0, 1},
	{1, -1, 0, 1},
	{1, 1, 0, 1},
}

/**
 * @brief The eye frame: where the camera is, what it looks at and which
 * way is up. All world space.
 */
type Eye struct {
	Position mgl64.Vec3
	LookAt   mgl64.Vec3
	Up       mgl64.Vec3
}

/**
 * @brief Perspective projection settings. FOV is the vertical field of
 * view in degrees.
 */
type Projection struct {
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64
}

// Frustum holds the inverse view-projection matrix and the four
// unnormalized world space rays from the eye through the screen corners.
type Frustum struct {
	InvViewProj mgl64.Mat4
	Corners     [4]mgl64.Vec3
}

func (fr Frustum) String() string {
	return fmt.Sprintf(
		"Frustum Rays:\n00 : (%3.3f, %3.3f, %3.3f)\n01 : (%3.3f, %3.3f, %3.3f)\n10 : (%3.3f, %3.3f, %3.3f)\n11 : (%3.3f, %3.3f, %3.3f)",
		fr.Corners[0][0], fr.Corners[0][1], fr.Corners[0][2],
		fr.Corners[1][0], fr.Corners[1][1], fr.Corners[1][2],
		fr.Corners[2][0], fr.Corners[2][1], fr.Corners[2][2],
		fr.Corners[3][0], fr.Corners[3][1], fr.Corners[3][2],
	)
}

// Camera bundles the eye frame and projection that a frame is rendered with.
type Camera struct {
	Eye        Eye
	Projection Projection
}

func NewCamera(eye Eye, projection Projection) Camera {
	return Camera{Eye: eye, Projection: projection}
}

// Frustum computes the frustum for the current camera state. It is not
// cached: the camera may change between frames.
func (c Camera) Frustum() (Frustum, error) {
	return ComputeFrustum(c.Eye, c.Projection)
}

// ViewProjection returns projection * view.
func (c Camera) ViewProjection() mgl64.Mat4 {
	return viewProjection(c.Eye, c.Projection)
}

func viewProjection(eye Eye, proj Projection) mgl64.Mat4 {
	view := mgl64.LookAtV(eye.Position, eye.LookAt, eye.Up)
	projection := mgl64.Perspective(mgl64.DegToRad(proj.FOV), proj.Aspect, proj.Near, proj.Far)
	return projection.Mul4(view)
}

// ComputeFrustum generates a ray vector for each corner of the camera
// frustum by multiplying the NDC corner with the inverse proj/view matrix,
// applying the perspective divide and subtracting the eye position.
func ComputeFrustum(eye Eye, proj Projection) (Frustum, error) {
	if err := validate(eye, proj); err != nil {
		return Frustum{}, err
	}

	vp := viewProjection(eye, proj)
	det := vp.Det()
	if det == 0 || !finite(det) {
		return Frustum{}, &core.DegenerateCameraError{Reason: fmt.Sprintf("view-projection matrix is not invertible (det=%g)", det)}
	}

	fr := Frustum{InvViewProj: vp.Inv()}
	for i, corner := range ndcCorners {
		v := fr.InvViewProj.Mul4x1(corner)
		if v[3] == 0 || !finite(v[3]) {
			return Frustum{}, &core.DegenerateCameraError{Reason: fmt.Sprintf("corner %d has w=%g after unprojection", i, v[3])}
		}
		ray := v.Vec3().Mul(1.0 / v[3]).Sub(eye.Position)
		if !finite(ray[0]) || !finite(ray[1]) || !finite(ray[2]) {
			return Frustum{}, &core.DegenerateCameraError{Reason: fmt.Sprintf("corner %d ray is not finite", i)}
		}
		fr.Corners[i] = ray
	}
	return fr, nil
}

func validate(eye Eye, proj Projection) error {
	switch {
	case !(proj.FOV > 0 && proj.FOV < 180):
		return &core.DegenerateCameraError{Reason: fmt.Sprintf("fov %g outside (0, 180)", proj.FOV)}
	case !(proj.Aspect > 0) || !finite(proj.Aspect):
		return &core.DegenerateCameraError{Reason: fmt.Sprintf("aspect ratio %g must be > 0", proj.Aspect)}
	case !(proj.Near > 0) || !(proj.Far > proj.Near) || !finite(proj.Far):
		return &core.DegenerateCameraError{Reason: fmt.Sprintf("clip planes near=%g far=%g must satisfy 0 < near < far", proj.Near, proj.Far)}
	}

	for _, v := range [3]mgl64.Vec3{eye.Position, eye.LookAt, eye.Up} {
		if !finite(v[0]) || !finite(v[1]) || !finite(v[2]) {
			return &core.DegenerateCameraError{Reason: "eye vectors must be finite"}
		}
	}

	dir := eye.LookAt.Sub(eye.Position)
	if dir.Len() == 0 {
		return &core.DegenerateCameraError{Reason: "eye position and look-at target coincide"}
	}
	if eye.Up.Len() == 0 || dir.Cross(eye.Up).Len() <= 1e-12*dir.Len()*eye.Up.Len() {
		return &core.DegenerateCameraError{Reason: "up vector is zero or parallel to the view direction"}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

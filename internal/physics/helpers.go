package physics

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
)

var (
	unitX = rl.Vector3{X: 1}
	unitY = rl.Vector3{Y: 1}
	unitZ = rl.Vector3{Z: 1}
)

// cross computes the cross product of two vectors
func cross(a, b rl.Vector3) rl.Vector3 {
	return rl.Vector3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func dot(a, b rl.Vector3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func absf(x float32) float32 {
	return math32.Abs(x)
}

// clampf restricts a value to a range
func clampf(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func absVec(v rl.Vector3) rl.Vector3 {
	return rl.Vector3{X: absf(v.X), Y: absf(v.Y), Z: absf(v.Z)}
}

func isZero(v rl.Vector3) bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// rotate applies q to v.
func rotate(q rl.Quaternion, v rl.Vector3) rl.Vector3 {
	return rl.Vector3RotateByQuaternion(v, q)
}

// rotateInv applies the inverse of the unit quaternion q to v.
func rotateInv(q rl.Quaternion, v rl.Vector3) rl.Vector3 {
	return rl.Vector3RotateByQuaternion(v, conjugate(q))
}

func conjugate(q rl.Quaternion) rl.Quaternion {
	return rl.Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// integrateOrientation advances q by angular velocity w (rad/s) over dt.
func integrateOrientation(q rl.Quaternion, w rl.Vector3, dt float32) rl.Quaternion {
	spin := rl.QuaternionMultiply(rl.Quaternion{X: w.X, Y: w.Y, Z: w.Z, W: 0}, q)
	q = rl.Quaternion{
		X: q.X + spin.X*0.5*dt,
		Y: q.Y + spin.Y*0.5*dt,
		Z: q.Z + spin.Z*0.5*dt,
		W: q.W + spin.W*0.5*dt,
	}
	return rl.QuaternionNormalize(q)
}

// FromToRotation returns the shortest rotation taking unit vector from onto to.
func FromToRotation(from, to rl.Vector3) rl.Quaternion {
	from = rl.Vector3Normalize(from)
	to = rl.Vector3Normalize(to)
	d := dot(from, to)
	if d > 0.99999 {
		return rl.QuaternionIdentity()
	}
	if d < -0.99999 {
		// 180 degrees about any axis perpendicular to from
		axis := cross(unitX, from)
		if rl.Vector3Length(axis) < 0.0001 {
			axis = cross(unitY, from)
		}
		axis = rl.Vector3Normalize(axis)
		return rl.Quaternion{X: axis.X, Y: axis.Y, Z: axis.Z, W: 0}
	}
	c := cross(from, to)
	return rl.QuaternionNormalize(rl.Quaternion{X: c.X, Y: c.Y, Z: c.Z, W: 1 + d})
}

// twistAngle returns the signed rotation of q about the unit axis, in radians [-pi, pi].
func twistAngle(q rl.Quaternion, axis rl.Vector3) float32 {
	if q.W < 0 {
		q = rl.Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
	}
	proj := q.X*axis.X + q.Y*axis.Y + q.Z*axis.Z
	return 2 * math32.Atan2(proj, q.W)
}

// closestPointOnSegment returns the point on segment ab closest to p.
func closestPointOnSegment(a, b, p rl.Vector3) rl.Vector3 {
	ab := rl.Vector3Subtract(b, a)
	lenSq := dot(ab, ab)
	if lenSq < 1e-12 {
		return a
	}
	t := clampf(dot(rl.Vector3Subtract(p, a), ab)/lenSq, 0, 1)
	return rl.Vector3Add(a, rl.Vector3Scale(ab, t))
}

// closestPointsSegments returns the closest points between segments p1q1 and p2q2.
func closestPointsSegments(p1, q1, p2, q2 rl.Vector3) (rl.Vector3, rl.Vector3) {
	d1 := rl.Vector3Subtract(q1, p1)
	d2 := rl.Vector3Subtract(q2, p2)
	r := rl.Vector3Subtract(p1, p2)
	a := dot(d1, d1)
	e := dot(d2, d2)
	f := dot(d2, r)

	var s, t float32
	switch {
	case a <= 1e-12 && e <= 1e-12:
		return p1, p2
	case a <= 1e-12:
		t = clampf(f/e, 0, 1)
	default:
		c := dot(d1, r)
		if e <= 1e-12 {
			s = clampf(-c/a, 0, 1)
		} else {
			b := dot(d1, d2)
			denom := a*e - b*b
			if denom != 0 {
				s = clampf((b*f-c*e)/denom, 0, 1)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clampf(-c/a, 0, 1)
			} else if t > 1 {
				t = 1
				s = clampf((b-c)/a, 0, 1)
			}
		}
	}
	return rl.Vector3Add(p1, rl.Vector3Scale(d1, s)), rl.Vector3Add(p2, rl.Vector3Scale(d2, t))
}

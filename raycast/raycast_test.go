package raycast

import (
	"math"
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func groundPlane() *actor.RigidBody {
	return actor.NewRigidBody(0,
		actor.WithShape(actor.NewPlane()),
		actor.WithQuaternion(mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})),
	)
}

func bodyWith(shape actor.Shape, position mgl64.Vec3) *actor.RigidBody {
	return actor.NewRigidBody(0, actor.WithShape(shape), actor.WithPosition(position))
}

// ============================================================================
// Shapes
// ============================================================================

func TestRay_Plane(t *testing.T) {
	ground := groundPlane()
	ray := NewRay(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0, -10, 0})

	var result Result
	if !ray.IntersectBody(ground, &result) {
		t.Fatal("ray should hit the plane")
	}
	if !vec3Equal(result.HitPointWorld, mgl64.Vec3{0, 0, 0}, 1e-9) {
		t.Errorf("hit point = %v, want origin", result.HitPointWorld)
	}
	if !vec3Equal(result.HitNormalWorld, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("hit normal = %v, want (0,1,0)", result.HitNormalWorld)
	}
	if math.Abs(result.Distance-10) > 1e-9 {
		t.Errorf("distance = %v, want 10", result.Distance)
	}
	if result.Body != ground || result.Shape != ground.Shapes[0] {
		t.Error("hit should report the plane body and shape")
	}
}

func TestRay_PlaneMiss(t *testing.T) {
	tests := []struct {
		name     string
		from, to mgl64.Vec3
	}{
		{"above", mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0, 1, 0}},
		{"parallel", mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}},
		{"below", mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, -5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result Result
			if NewRay(tt.from, tt.to).IntersectBody(groundPlane(), &result) {
				t.Errorf("unexpected hit at %v", result.HitPointWorld)
			}
		})
	}
}

func TestRay_Sphere(t *testing.T) {
	ball := bodyWith(actor.NewSphere(1), mgl64.Vec3{0, 0, 5})

	tests := []struct {
		name     string
		from, to mgl64.Vec3
		hit      bool
		point    mgl64.Vec3
		normal   mgl64.Vec3
	}{
		{"through center", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 10}, true, mgl64.Vec3{0, 0, 4}, mgl64.Vec3{0, 0, -1}},
		{"from behind", mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 0}, true, mgl64.Vec3{0, 0, 6}, mgl64.Vec3{0, 0, 1}},
		{"too short", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 3}, false, mgl64.Vec3{}, mgl64.Vec3{}},
		{"beside", mgl64.Vec3{2, 0, 0}, mgl64.Vec3{2, 0, 10}, false, mgl64.Vec3{}, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result Result
			hit := NewRay(tt.from, tt.to).IntersectBody(ball, &result)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if !hit {
				return
			}
			if !vec3Equal(result.HitPointWorld, tt.point, 1e-9) {
				t.Errorf("hit point = %v, want %v", result.HitPointWorld, tt.point)
			}
			if !vec3Equal(result.HitNormalWorld, tt.normal, 1e-9) {
				t.Errorf("hit normal = %v, want %v", result.HitNormalWorld, tt.normal)
			}
		})
	}
}

func TestRay_Box(t *testing.T) {
	crate := bodyWith(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 0, 5})

	var result Result
	if !NewRay(mgl64.Vec3{0.3, 0.2, 0}, mgl64.Vec3{0.3, 0.2, 10}).IntersectBody(crate, &result) {
		t.Fatal("ray should hit the box")
	}
	if !vec3Equal(result.HitPointWorld, mgl64.Vec3{0.3, 0.2, 4}, 1e-9) {
		t.Errorf("hit point = %v", result.HitPointWorld)
	}
	if !vec3Equal(result.HitNormalWorld, mgl64.Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("hit normal = %v", result.HitNormalWorld)
	}
	if result.HitFaceIndex < 0 {
		t.Error("box hits report a face index")
	}
	if result.Shape != crate.Shapes[0] {
		t.Error("the box itself should be reported, not its hull")
	}
}

func TestRay_RotatedBox(t *testing.T) {
	crate := actor.NewRigidBody(0,
		actor.WithShape(actor.NewBox(mgl64.Vec3{1, 1, 1})),
		actor.WithQuaternion(mgl64.QuatRotate(math.Pi/6, mgl64.Vec3{0, 1, 0})),
	)

	var result Result
	if !NewRay(mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, 5}).IntersectBody(crate, &result) {
		t.Fatal("ray should hit the box")
	}
	if !vec3Equal(result.HitPointWorld, mgl64.Vec3{0, 0, -2 / math.Sqrt(3)}, 1e-9) {
		t.Errorf("hit point = %v", result.HitPointWorld)
	}
	if !vec3Equal(result.HitNormalWorld, mgl64.Vec3{-0.5, 0, -math.Sqrt(3) / 2}, 1e-9) {
		t.Errorf("hit normal = %v, want the rotated -Z face", result.HitNormalWorld)
	}
}

func TestRay_Trimesh(t *testing.T) {
	mesh, err := actor.NewTrimesh(
		[]mgl64.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}},
		[]int{0, 2, 1, 0, 3, 2},
	)
	if err != nil {
		t.Fatal(err)
	}
	floor := bodyWith(mesh, mgl64.Vec3{0, 1, 0})

	var result Result
	if !NewRay(mgl64.Vec3{0.5, 5, 0.2}, mgl64.Vec3{0.5, -5, 0.2}).IntersectBody(floor, &result) {
		t.Fatal("ray should hit the mesh")
	}
	if !vec3Equal(result.HitPointWorld, mgl64.Vec3{0.5, 1, 0.2}, 1e-9) {
		t.Errorf("hit point = %v", result.HitPointWorld)
	}
	if math.Abs(result.HitNormalWorld.Y()) < 1-1e-9 {
		t.Errorf("hit normal = %v", result.HitNormalWorld)
	}
	if result.HitFaceIndex < 0 || result.HitFaceIndex > 1 {
		t.Errorf("triangle index = %d", result.HitFaceIndex)
	}
}

func TestRay_Heightfield(t *testing.T) {
	hf, err := actor.NewHeightfield([][]float64{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	terrain := bodyWith(hf, mgl64.Vec3{})

	var result Result
	if !NewRay(mgl64.Vec3{1.2, 0.9, 5}, mgl64.Vec3{1.2, 0.9, -5}).IntersectBody(terrain, &result) {
		t.Fatal("ray should hit the terrain")
	}
	if !vec3Equal(result.HitPointWorld, mgl64.Vec3{1.2, 0.9, hf.Height(1.2, 0.9)}, 1e-9) {
		t.Errorf("hit point = %v, want the surface at height 0.8", result.HitPointWorld)
	}
	if result.Shape != hf {
		t.Error("hits report the heightfield")
	}
}

// ============================================================================
// Modes and filters
// ============================================================================

func row() []*actor.RigidBody {
	return []*actor.RigidBody{
		bodyWith(actor.NewSphere(0.5), mgl64.Vec3{0, 0, 6}),
		bodyWith(actor.NewSphere(0.5), mgl64.Vec3{0, 0, 2}),
		bodyWith(actor.NewSphere(0.5), mgl64.Vec3{0, 0, 4}),
	}
}

func TestRay_Modes(t *testing.T) {
	t.Run("closest", func(t *testing.T) {
		bodies := row()
		var result Result
		ray := NewRay(mgl64.Vec3{}, mgl64.Vec3{0, 0, 10})
		if !ray.IntersectBodies(bodies, &result) {
			t.Fatal("no hit")
		}
		if result.Body != bodies[1] || math.Abs(result.Distance-1.5) > 1e-9 {
			t.Errorf("closest hit = body %d at %v", result.Body.ID(), result.Distance)
		}
	})

	t.Run("any", func(t *testing.T) {
		bodies := row()
		var result Result
		ray := NewRay(mgl64.Vec3{}, mgl64.Vec3{0, 0, 10})
		ray.Mode = Any
		if !ray.IntersectBodies(bodies, &result) {
			t.Fatal("no hit")
		}
		// the first body tested stops the query
		if result.Body != bodies[0] {
			t.Error("any should stop at the first body hit")
		}
	})

	t.Run("all", func(t *testing.T) {
		bodies := row()
		var result Result
		hits := 0
		ray := NewRay(mgl64.Vec3{}, mgl64.Vec3{0, 0, 10})
		ray.Mode = All
		ray.Callback = func(r *Result) { hits++ }
		ray.IntersectBodies(bodies, &result)
		// entry and exit of every sphere
		if hits != 6 {
			t.Errorf("got %d hits, want 6", hits)
		}
	})

	t.Run("all aborted", func(t *testing.T) {
		bodies := row()
		var result Result
		hits := 0
		ray := NewRay(mgl64.Vec3{}, mgl64.Vec3{0, 0, 10})
		ray.Mode = All
		ray.Callback = func(r *Result) {
			hits++
			r.Abort()
		}
		ray.IntersectBodies(bodies, &result)
		if hits != 1 {
			t.Errorf("got %d hits after abort, want 1", hits)
		}
	})
}

func TestRay_SkipBackfaces(t *testing.T) {
	ball := bodyWith(actor.NewSphere(1), mgl64.Vec3{})
	ray := NewRay(mgl64.Vec3{}, mgl64.Vec3{0, 0, 5})

	var result Result
	if !ray.IntersectBody(ball, &result) {
		t.Fatal("the exit point should be hit")
	}
	ray.SkipBackfaces = true
	if ray.IntersectBody(ball, &result) {
		t.Error("a ray leaving the sphere only sees its back face")
	}
}

func TestRay_Filters(t *testing.T) {
	tests := []struct {
		name   string
		body   func() *actor.RigidBody
		modify func(r *Ray)
		hit    bool
	}{
		{
			name: "group excluded by mask",
			body: func() *actor.RigidBody {
				return actor.NewRigidBody(0, actor.WithShape(actor.NewSphere(1)), actor.WithCollisionFilterGroup(4))
			},
			modify: func(r *Ray) { r.CollisionFilterMask = 1 | 2 },
			hit:    false,
		},
		{
			name: "ray group excluded by body mask",
			body: func() *actor.RigidBody {
				return actor.NewRigidBody(0, actor.WithShape(actor.NewSphere(1)), actor.WithCollisionFilterMask(2))
			},
			modify: func(r *Ray) { r.CollisionFilterGroup = 1 },
			hit:    false,
		},
		{
			name: "trigger skipped",
			body: func() *actor.RigidBody {
				return actor.NewRigidBody(0, actor.WithShape(actor.NewSphere(1)), actor.WithCollisionResponse(false))
			},
			modify: func(r *Ray) {},
			hit:    false,
		},
		{
			name: "trigger hit without response check",
			body: func() *actor.RigidBody {
				return actor.NewRigidBody(0, actor.WithShape(actor.NewSphere(1)), actor.WithCollisionResponse(false))
			},
			modify: func(r *Ray) { r.CheckCollisionResponse = false },
			hit:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := NewRay(mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, 5})
			tt.modify(ray)

			var result Result
			if got := ray.IntersectBody(tt.body(), &result); got != tt.hit {
				t.Errorf("hit = %v, want %v", got, tt.hit)
			}
		})
	}
}

func TestRay_AABB(t *testing.T) {
	ray := NewRay(mgl64.Vec3{1, -2, 3}, mgl64.Vec3{-1, 2, 0})
	aabb := ray.AABB()
	if aabb.Min != (mgl64.Vec3{-1, -2, 0}) || aabb.Max != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("aabb = %v", aabb)
	}
}

func TestResult_Reset(t *testing.T) {
	result := Result{HasHit: true, Distance: 3, HitFaceIndex: 2}
	result.Reset()
	if result.HasHit || result.Distance != -1 || result.HitFaceIndex != -1 || result.Body != nil {
		t.Errorf("reset result = %+v", result)
	}
}

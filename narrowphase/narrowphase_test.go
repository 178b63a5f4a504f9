package narrowphase

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

var gravity = mgl64.Vec3{0, -9.82, 0}

const dt = 1.0 / 60.0

func vec3Equal(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

// groundPlane is a static plane facing +Y
func groundPlane(opts ...actor.BodyOption) *actor.RigidBody {
	opts = append([]actor.BodyOption{
		actor.WithShape(actor.NewPlane()),
		actor.WithQuaternion(mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})),
	}, opts...)
	return actor.NewRigidBody(0, opts...)
}

func sphere(mass, radius float64, position mgl64.Vec3, opts ...actor.BodyOption) *actor.RigidBody {
	opts = append([]actor.BodyOption{
		actor.WithShape(actor.NewSphere(radius)),
		actor.WithPosition(position),
	}, opts...)
	return actor.NewRigidBody(mass, opts...)
}

func box(mass float64, halfExtents, position mgl64.Vec3) *actor.RigidBody {
	return actor.NewRigidBody(mass,
		actor.WithShape(actor.NewBox(halfExtents)),
		actor.WithPosition(position),
	)
}

func collide(n *Narrowphase, a, b *actor.RigidBody) Result {
	return n.GetContacts([]*actor.RigidBody{a}, []*actor.RigidBody{b}, dt, gravity)
}

func assertContacts(t *testing.T, contacts []*constraint.ContactEquation, count int, normal mgl64.Vec3, depth float64) {
	t.Helper()
	if len(contacts) != count {
		t.Fatalf("got %d contacts, want %d", len(contacts), count)
	}
	for i, c := range contacts {
		if !vec3Equal(c.NI, normal, 1e-6) {
			t.Errorf("contact %d normal = %v, want %v", i, c.NI, normal)
		}
		if !floatEqual(c.Depth(), depth, 1e-6) {
			t.Errorf("contact %d depth = %v, want %v", i, c.Depth(), depth)
		}
	}
}

// ============================================================================
// Sphere routines
// ============================================================================

func TestSphereSphere(t *testing.T) {
	tests := []struct {
		name      string
		positionB mgl64.Vec3
		want      int
		depth     float64
	}{
		{"overlapping", mgl64.Vec3{1.8, 0, 0}, 1, 0.2},
		{"touching", mgl64.Vec3{2, 0, 0}, 1, 0},
		{"separated", mgl64.Vec3{2.5, 0, 0}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNarrowphase()
			a := sphere(1, 1, mgl64.Vec3{})
			b := sphere(1, 1, tt.positionB)

			result := collide(n, a, b)
			if tt.want == 0 {
				if len(result.Contacts) != 0 {
					t.Fatalf("got %d contacts, want 0", len(result.Contacts))
				}
				return
			}
			assertContacts(t, result.Contacts, 1, mgl64.Vec3{1, 0, 0}, tt.depth)

			c := result.Contacts[0]
			if c.BodyA != a || c.BodyB != b {
				t.Error("bodies out of order")
			}
			if !vec3Equal(c.RI, mgl64.Vec3{1, 0, 0}, 1e-9) {
				t.Errorf("RI = %v", c.RI)
			}
		})
	}
}

func TestSpherePlane(t *testing.T) {
	n := NewNarrowphase()
	ground := groundPlane()
	ball := sphere(1, 1, mgl64.Vec3{3, 0.9, -2})

	t.Run("penetrating", func(t *testing.T) {
		// the plane type is higher, the sphere comes first whatever the pair order
		result := collide(n, ground, ball)
		assertContacts(t, result.Contacts, 1, mgl64.Vec3{0, -1, 0}, 0.1)
		if result.Contacts[0].BodyA != ball {
			t.Error("sphere should be body A")
		}
		if !vec3Equal(result.Contacts[0].RJ, mgl64.Vec3{3, 0, -2}, 1e-9) {
			t.Errorf("plane contact point = %v, want the projected center", result.Contacts[0].RJ)
		}
	})

	t.Run("above", func(t *testing.T) {
		ball.Transform.Position = mgl64.Vec3{0, 1.5, 0}
		if result := collide(n, ground, ball); len(result.Contacts) != 0 {
			t.Errorf("got %d contacts above the plane", len(result.Contacts))
		}
	})
}

func TestSphereBox(t *testing.T) {
	tests := []struct {
		name     string
		position mgl64.Vec3
		normal   mgl64.Vec3
		depth    float64
	}{
		{"face", mgl64.Vec3{0.2, 1.4, 0.1}, mgl64.Vec3{0, -1, 0}, 0.1},
		{"edge", mgl64.Vec3{1.3, 1.3, 0}, mgl64.Vec3{-1 / math.Sqrt2, -1 / math.Sqrt2, 0}, 0.5 - 0.3*math.Sqrt2},
		{"corner", mgl64.Vec3{1.2, 1.2, 1.2}, mgl64.Vec3{-1, -1, -1}.Normalize(), 0.5 - 0.2*math.Sqrt(3)},
		{"deep center", mgl64.Vec3{0, 0.8, 0}, mgl64.Vec3{0, -1, 0}, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNarrowphase()
			b := box(0, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{})
			s := sphere(1, 0.5, tt.position)

			result := collide(n, b, s)
			assertContacts(t, result.Contacts, 1, tt.normal, tt.depth)
		})
	}
}

func TestSphereBox_Separated(t *testing.T) {
	n := NewNarrowphase()
	result := collide(n, box(0, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}), sphere(1, 0.5, mgl64.Vec3{0, 1.6, 0}))
	if len(result.Contacts) != 0 {
		t.Errorf("got %d contacts", len(result.Contacts))
	}
}

// ============================================================================
// Hull routines
// ============================================================================

func TestPlaneBox(t *testing.T) {
	n := NewNarrowphase()
	result := collide(n, box(1, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0, 0.4, 0}), groundPlane())

	assertContacts(t, result.Contacts, 4, mgl64.Vec3{0, 1, 0}, 0.1)
}

func TestPlaneBox_Touching(t *testing.T) {
	n := NewNarrowphase()
	// the rotated plane normal is not exactly +Y, every bottom corner must still touch
	result := collide(n, box(1, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0, 0.5, 0}), groundPlane())

	if len(result.Contacts) != 4 {
		t.Fatalf("got %d contacts, want the 4 bottom corners", len(result.Contacts))
	}
	var sum mgl64.Vec3
	for _, c := range result.Contacts {
		sum = sum.Add(c.RJ)
	}
	if math.Abs(sum.X()) > 1e-9 || math.Abs(sum.Z()) > 1e-9 {
		t.Errorf("contact arms sum to %v, want a symmetric manifold", sum)
	}
}

func TestBoxBox_Stack(t *testing.T) {
	n := NewNarrowphase()
	bottom := box(0, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{})
	top := box(1, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0, 0.95, 0})

	result := collide(n, bottom, top)
	assertContacts(t, result.Contacts, 4, mgl64.Vec3{0, 1, 0}, 0.05)
}

func TestBoxBox_Separated(t *testing.T) {
	n := NewNarrowphase()
	// bounding spheres overlap, the boxes do not
	a := box(1, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{})
	b := actor.NewRigidBody(1,
		actor.WithShape(actor.NewBox(mgl64.Vec3{0.5, 0.5, 0.5})),
		actor.WithPosition(mgl64.Vec3{1.3, 0, 0}),
		actor.WithQuaternion(mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})),
	)

	if result := collide(n, a, b); len(result.Contacts) != 0 {
		t.Errorf("got %d contacts", len(result.Contacts))
	}
}

func TestCylinderOnPlane(t *testing.T) {
	cylinder, err := actor.NewCylinder(0.5, 0.5, 1, 8)
	if err != nil {
		t.Fatal(err)
	}
	body := actor.NewRigidBody(1, actor.WithShape(cylinder), actor.WithPosition(mgl64.Vec3{0, 0.45, 0}))

	n := NewNarrowphase()
	result := collide(n, groundPlane(), body)
	// the whole bottom ring touches
	assertContacts(t, result.Contacts, 8, mgl64.Vec3{0, 1, 0}, 0.05)
}

// ============================================================================
// Heightfield and trimesh
// ============================================================================

func flatHeightfield(t *testing.T) *actor.RigidBody {
	t.Helper()
	hf, err := actor.NewHeightfield([][]float64{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	return actor.NewRigidBody(0, actor.WithShape(hf))
}

func TestSphereHeightfield(t *testing.T) {
	n := NewNarrowphase()
	terrain := flatHeightfield(t)
	ball := sphere(1, 0.5, mgl64.Vec3{0.5, 0.3, 0.4})

	result := collide(n, terrain, ball)
	if len(result.Contacts) == 0 {
		t.Fatal("no contact with the terrain")
	}
	for i, c := range result.Contacts {
		if c.NI.Z() > -0.5 {
			t.Errorf("contact %d normal %v should point into the terrain", i, c.NI)
		}
		if d := c.Depth(); d <= 0 || d > 0.11 {
			t.Errorf("contact %d depth = %v", i, d)
		}
		if c.ShapeB != terrain.Shapes[0] {
			t.Errorf("contact %d should report the heightfield shape", i)
		}
	}

	ball.Transform.Position = mgl64.Vec3{0.5, 0.3, 0.6}
	if result := collide(n, terrain, ball); len(result.Contacts) != 0 {
		t.Errorf("got %d contacts above the terrain", len(result.Contacts))
	}
}

func TestBoxHeightfield(t *testing.T) {
	n := NewNarrowphase()
	terrain := flatHeightfield(t)
	b := box(1, mgl64.Vec3{0.25, 0.25, 0.25}, mgl64.Vec3{0.6, 0.6, 0.2})

	result := collide(n, b, terrain)
	if len(result.Contacts) == 0 {
		t.Fatal("no contact with the terrain")
	}
	for i, c := range result.Contacts {
		if c.NI.Z() > -0.5 {
			t.Errorf("contact %d normal %v should point into the terrain", i, c.NI)
		}
	}
}

func TestSphereTrimesh(t *testing.T) {
	t.Run("face", func(t *testing.T) {
		mesh, err := actor.NewTrimesh([]mgl64.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}, []int{0, 1, 2})
		if err != nil {
			t.Fatal(err)
		}
		n := NewNarrowphase()
		result := collide(n, sphere(1, 0.5, mgl64.Vec3{0.5, 0.5, 0.4}), actor.NewRigidBody(0, actor.WithShape(mesh)))
		assertContacts(t, result.Contacts, 1, mgl64.Vec3{0, 0, -1}, 0.1)
	})

	t.Run("shared vertex", func(t *testing.T) {
		mesh, err := actor.NewTrimesh(
			[]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {-1, 0, 0}},
			[]int{0, 1, 2, 0, 2, 3},
		)
		if err != nil {
			t.Fatal(err)
		}
		n := NewNarrowphase()
		result := collide(n, sphere(1, 0.5, mgl64.Vec3{0, 0, 0.3}), actor.NewRigidBody(0, actor.WithShape(mesh)))
		// the shared vertex and both face projections are the same point
		if len(result.Contacts) != 1 {
			t.Errorf("got %d contacts, want 1", len(result.Contacts))
		}
	})

	t.Run("shared edge", func(t *testing.T) {
		mesh, err := actor.NewTrimesh(
			[]mgl64.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}},
			[]int{0, 1, 2, 0, 2, 3},
		)
		if err != nil {
			t.Fatal(err)
		}
		n := NewNarrowphase()
		result := collide(n, sphere(1, 0.5, mgl64.Vec3{0, 0, 0.45}), actor.NewRigidBody(0, actor.WithShape(mesh)))
		assertContacts(t, result.Contacts, 1, mgl64.Vec3{0, 0, -1}, 0.05)
	})

	t.Run("scaled", func(t *testing.T) {
		mesh, err := actor.NewTrimesh([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []int{0, 1, 2})
		if err != nil {
			t.Fatal(err)
		}
		mesh.SetScale(mgl64.Vec3{4, 4, 1})
		n := NewNarrowphase()
		result := collide(n, sphere(1, 0.5, mgl64.Vec3{1.5, 1.5, 0.45}), actor.NewRigidBody(0, actor.WithShape(mesh)))
		assertContacts(t, result.Contacts, 1, mgl64.Vec3{0, 0, -1}, 0.05)
	})
}

func TestPlaneTrimesh(t *testing.T) {
	mesh, err := actor.NewTrimesh([]mgl64.Vec3{{0, -0.1, 0}, {1, -0.1, 0}, {0, 0.5, 1}}, []int{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	n := NewNarrowphase()
	result := collide(n, actor.NewRigidBody(0, actor.WithShape(mesh)), groundPlane())

	assertContacts(t, result.Contacts, 2, mgl64.Vec3{0, 1, 0}, 0.1)
}

// ============================================================================
// Particles
// ============================================================================

func particle(position mgl64.Vec3) *actor.RigidBody {
	return actor.NewRigidBody(1, actor.WithShape(actor.NewParticle()), actor.WithPosition(position))
}

func TestParticle(t *testing.T) {
	tests := []struct {
		name   string
		other  func(t *testing.T) *actor.RigidBody
		point  mgl64.Vec3
		normal mgl64.Vec3
		depth  float64
	}{
		{
			name:   "sphere",
			other:  func(t *testing.T) *actor.RigidBody { return sphere(0, 1, mgl64.Vec3{}) },
			point:  mgl64.Vec3{0, 0.9, 0},
			normal: mgl64.Vec3{0, 1, 0},
			depth:  0.1,
		},
		{
			name:   "plane",
			other:  func(t *testing.T) *actor.RigidBody { return groundPlane() },
			point:  mgl64.Vec3{2, -0.2, 1},
			normal: mgl64.Vec3{0, 1, 0},
			depth:  0.2,
		},
		{
			name:   "box",
			other:  func(t *testing.T) *actor.RigidBody { return box(0, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}) },
			point:  mgl64.Vec3{0.1, 0.7, 0},
			normal: mgl64.Vec3{0, 1, 0},
			depth:  0.3,
		},
		{
			name:   "heightfield",
			other:  flatHeightfield,
			point:  mgl64.Vec3{1.2, 0.7, -0.25},
			normal: mgl64.Vec3{0, 0, 1},
			depth:  0.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNarrowphase()
			other := tt.other(t)
			p := particle(tt.point)

			result := collide(n, p, other)
			assertContacts(t, result.Contacts, 1, tt.normal, tt.depth)
			if result.Contacts[0].BodyB != p {
				t.Error("particle should be body B")
			}
		})
	}
}

func TestParticle_Outside(t *testing.T) {
	n := NewNarrowphase()
	if result := collide(n, particle(mgl64.Vec3{0, 1.5, 0}), box(0, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{})); len(result.Contacts) != 0 {
		t.Errorf("got %d contacts", len(result.Contacts))
	}
}

// ============================================================================
// Pair handling
// ============================================================================

func TestGetContacts_ShapeFilter(t *testing.T) {
	n := NewNarrowphase()
	a := sphere(1, 1, mgl64.Vec3{})
	b := sphere(1, 1, mgl64.Vec3{1, 0, 0})
	a.Shapes[0].Base().CollisionFilterGroup = 2
	b.Shapes[0].Base().CollisionFilterMask = 1

	if result := collide(n, a, b); len(result.Contacts) != 0 {
		t.Errorf("filtered pair produced %d contacts", len(result.Contacts))
	}
}

func TestGetContacts_WarmStart(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		shift    mgl64.Vec3
		want     bool
	}{
		{"same place", DefaultWarmStartDistance, mgl64.Vec3{}, true},
		{"moved a little", DefaultWarmStartDistance, mgl64.Vec3{0.01, 0, 0}, true},
		{"moved away", DefaultWarmStartDistance, mgl64.Vec3{0.5, 0, 0}, false},
		{"disabled", 0, mgl64.Vec3{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNarrowphase()
			n.WarmStartDistance = tt.distance
			ball := sphere(1, 1, mgl64.Vec3{0, 0.9, 0})
			ground := groundPlane()

			first := collide(n, ball, ground)
			if len(first.Contacts) != 1 || len(first.Frictions) != 2 {
				t.Fatalf("got %d contacts, %d frictions", len(first.Contacts), len(first.Frictions))
			}
			// what the solver would have left
			first.Contacts[0].Multiplier = 3
			for k, f := range first.Frictions {
				f.Multiplier = float64(k%2) - 0.5
			}

			// the plane is body B, the contact point moves with the ball in its frame
			ball.Transform.Position = ball.Transform.Position.Add(tt.shift)
			second := collide(n, ball, ground)
			if len(second.Contacts) != 1 || len(second.Frictions) != 2 {
				t.Fatalf("got %d contacts, %d frictions on the second call", len(second.Contacts), len(second.Frictions))
			}

			for i, c := range second.Contacts {
				if got := c.WarmLambda != 0; got != tt.want {
					t.Errorf("contact %d warm impulse = %v, want warm %v", i, c.WarmLambda, tt.want)
				} else if tt.want && !floatEqual(c.WarmLambda, 3*dt, 1e-12) {
					t.Errorf("contact %d warm impulse = %v, want %v", i, c.WarmLambda, 3*dt)
				}
			}
			for k, f := range second.Frictions {
				want := 0.0
				if tt.want {
					want = (float64(k%2) - 0.5) * dt
				}
				if !floatEqual(f.WarmLambda, want, 1e-12) {
					t.Errorf("friction %d warm impulse = %v, want %v", k, f.WarmLambda, want)
				}
			}
		})
	}
}

func TestGetContacts_KinematicOnlyTested(t *testing.T) {
	n := NewNarrowphase()
	platform := sphere(1, 1, mgl64.Vec3{0, 0.5, 0}, actor.WithType(actor.BodyTypeKinematic))
	ground := groundPlane()

	result := collide(n, platform, ground)
	if len(result.Contacts) != 0 || len(result.Frictions) != 0 {
		t.Errorf("kinematic/static pair produced %d contacts, %d frictions", len(result.Contacts), len(result.Frictions))
	}
	if len(result.Overlaps) != 1 {
		t.Fatalf("got %d overlaps, want 1", len(result.Overlaps))
	}
	if o := result.Overlaps[0]; o.BodyA != platform || o.BodyB != ground {
		t.Error("overlap should keep the pair order")
	}
}

func TestGetContacts_Trigger(t *testing.T) {
	n := NewNarrowphase()
	trigger := sphere(1, 1, mgl64.Vec3{0, 0.5, 0}, actor.WithCollisionResponse(false))

	result := collide(n, trigger, groundPlane())
	if len(result.Contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(result.Contacts))
	}
	if result.Contacts[0].Enabled {
		t.Error("trigger contact should be disabled")
	}
	if len(result.Frictions) != 0 {
		t.Errorf("trigger produced %d frictions", len(result.Frictions))
	}
}

func TestGetContacts_Friction(t *testing.T) {
	n := NewNarrowphase()
	ball := sphere(2, 1, mgl64.Vec3{0, 0.9, 0})

	result := collide(n, ball, groundPlane())
	if len(result.Frictions) != 2 {
		t.Fatalf("got %d frictions, want 2", len(result.Frictions))
	}

	slip := 0.3 * 9.82 * 2
	c := result.Contacts[0]
	for i, f := range result.Frictions {
		if !floatEqual(f.MaxForce, slip, 1e-9) || !floatEqual(f.MinForce, -slip, 1e-9) {
			t.Errorf("friction %d bounds = [%v, %v], want ±%v", i, f.MinForce, f.MaxForce, slip)
		}
		if !floatEqual(f.T.Dot(c.NI), 0, 1e-9) {
			t.Errorf("friction %d tangent %v not orthogonal to %v", i, f.T, c.NI)
		}
		if f.RI != c.RI || f.RJ != c.RJ {
			t.Errorf("friction %d arms differ from its contact", i)
		}
	}
}

func TestGetContacts_FrictionReduction(t *testing.T) {
	n := NewNarrowphase()
	n.EnableFrictionReduction = true

	result := collide(n, box(1, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0, 0.4, 0}), groundPlane())
	if len(result.Contacts) != 4 {
		t.Fatalf("got %d contacts, want 4", len(result.Contacts))
	}
	if len(result.Frictions) != 2 {
		t.Fatalf("got %d frictions, want 2", len(result.Frictions))
	}
	// the average of the four corners is below the box center
	if !vec3Equal(result.Frictions[0].RJ, mgl64.Vec3{0, -0.5, 0}, 1e-9) {
		t.Errorf("averaged arm = %v", result.Frictions[0].RJ)
	}
}

func TestGetContacts_Materials(t *testing.T) {
	rubber := actor.NewMaterial("rubber")
	rubber.Restitution = 0.5
	ice := actor.NewMaterial("ice")
	ice.Restitution = 0.4

	t.Run("surface product", func(t *testing.T) {
		n := NewNarrowphase()
		ball := sphere(1, 1, mgl64.Vec3{0, 0.9, 0}, actor.WithMaterial(rubber))
		ground := groundPlane(actor.WithMaterial(ice))

		result := collide(n, ball, ground)
		if got := result.Contacts[0].Restitution; !floatEqual(got, 0.2, 1e-12) {
			t.Errorf("restitution = %v, want 0.2", got)
		}
	})

	t.Run("contact material table", func(t *testing.T) {
		n := NewNarrowphase()
		plain := actor.NewMaterial("plain")
		cm := actor.NewContactMaterial(plain, plain)
		cm.Friction = 0
		cm.Restitution = 0.7
		cm.ContactEquationStiffness = 1e5
		n.ContactMaterials.Add(cm)

		ball := sphere(1, 1, mgl64.Vec3{0, 0.9, 0}, actor.WithMaterial(plain))
		ground := groundPlane(actor.WithMaterial(plain))

		result := collide(n, ball, ground)
		c := result.Contacts[0]
		if c.Restitution != 0.7 || c.Stiffness != 1e5 {
			t.Errorf("contact = restitution %v stiffness %v", c.Restitution, c.Stiffness)
		}
		if len(result.Frictions) != 0 {
			t.Errorf("frictionless material produced %d frictions", len(result.Frictions))
		}
	})
}

func TestGetContacts_UnsupportedPairLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	n := NewNarrowphase()
	n.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	a := groundPlane()
	b := groundPlane()
	for range 3 {
		if result := collide(n, a, b); len(result.Contacts) != 0 {
			t.Fatalf("unsupported pair produced %d contacts", len(result.Contacts))
		}
	}

	if count := strings.Count(buf.String(), "unsupported shape pair"); count != 1 {
		t.Errorf("logged %d times, want 1", count)
	}
}

func TestGetContacts_ArenaReused(t *testing.T) {
	n := NewNarrowphase()
	a := sphere(1, 1, mgl64.Vec3{})
	b := sphere(1, 1, mgl64.Vec3{1.5, 0, 0})

	first := collide(n, a, b).Contacts[0]
	second := collide(n, a, b).Contacts[0]
	if first != second {
		t.Error("contact equations should come from the arena")
	}
}

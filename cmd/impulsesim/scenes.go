package main

import (
	"fmt"
	"math"
	"sort"

	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

type sceneBuilder func(world *impulse.World) error

var scenes = map[string]sceneBuilder{
	"drop":    dropScene,
	"stack":   stackScene,
	"terrain": terrainScene,
	"mesh":    meshScene,
}

func sceneNames() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ground is a static plane through the origin facing +Y
func ground() *actor.RigidBody {
	return actor.NewRigidBody(0,
		actor.WithShape(actor.NewPlane()),
		actor.WithQuaternion(mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})),
	)
}

// dropScene drops one body of each convex kind on the ground
func dropScene(world *impulse.World) error {
	world.AddBody(ground())

	cylinder, err := actor.NewCylinder(0.5, 0.5, 1, 12)
	if err != nil {
		return err
	}

	shapes := []actor.Shape{
		actor.NewSphere(0.5),
		actor.NewBox(mgl64.Vec3{0.5, 0.5, 0.5}),
		cylinder,
	}
	for i, shape := range shapes {
		world.AddBody(actor.NewRigidBody(1,
			actor.WithShape(shape),
			actor.WithPosition(mgl64.Vec3{float64(i)*2 - 2, 3 + float64(i), 0}),
			actor.WithQuaternion(mgl64.QuatRotate(0.3*float64(i), mgl64.Vec3{0, 0, 1})),
		))
	}

	return nil
}

// stackScene piles unit boxes on the ground
func stackScene(world *impulse.World) error {
	world.AddBody(ground())

	const height = 6
	for i := 0; i < height; i++ {
		world.AddBody(actor.NewRigidBody(1,
			actor.WithShape(actor.NewBox(mgl64.Vec3{0.5, 0.5, 0.5})),
			actor.WithPosition(mgl64.Vec3{0, 0.5 + float64(i)*1.01, 0}),
		))
	}

	return nil
}

// terrainScene rains spheres and boxes on a rolling heightfield
func terrainScene(world *impulse.World) error {
	const size = 16
	data := make([][]float64, size)
	for i := range data {
		data[i] = make([]float64, size)
		for j := range data[i] {
			data[i][j] = math.Sin(float64(i)*0.5) * math.Cos(float64(j)*0.5)
		}
	}

	heightfield, err := actor.NewHeightfield(data, 1)
	if err != nil {
		return fmt.Errorf("terrain: %w", err)
	}
	// Heightfield samples grow along local Z, turn it to +Y
	world.AddBody(actor.NewRigidBody(0,
		actor.WithShape(heightfield),
		actor.WithQuaternion(mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})),
	))

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var shape actor.Shape = actor.NewSphere(0.4)
			if (i+j)%2 == 1 {
				shape = actor.NewBox(mgl64.Vec3{0.3, 0.3, 0.3})
			}
			world.AddBody(actor.NewRigidBody(1,
				actor.WithShape(shape),
				actor.WithPosition(mgl64.Vec3{3 + float64(i)*3, 4, -3 - float64(j)*3}),
			))
		}
	}

	return nil
}

// meshScene rolls spheres down a static triangle mesh ramp
func meshScene(world *impulse.World) error {
	world.AddBody(ground())

	vertices := []mgl64.Vec3{
		{-4, 3, -2}, {-4, 3, 2},
		{4, 0.01, -2}, {4, 0.01, 2},
	}
	indices := []int{0, 1, 2, 2, 1, 3}
	ramp, err := actor.NewTrimesh(vertices, indices)
	if err != nil {
		return fmt.Errorf("mesh: %w", err)
	}
	world.AddBody(actor.NewRigidBody(0, actor.WithShape(ramp)))

	for i := 0; i < 3; i++ {
		world.AddBody(actor.NewRigidBody(1,
			actor.WithShape(actor.NewSphere(0.3)),
			actor.WithPosition(mgl64.Vec3{-3.5, 4 + float64(i), -1 + float64(i)}),
		))
	}

	return nil
}

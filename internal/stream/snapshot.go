package stream

import (
	"github.com/akmonengine/impulse"
	"github.com/akmonengine/impulse/actor"
)

// BodyState is the streamed state of one body
type BodyState struct {
	ID       int        `json:"id"`
	Type     string     `json:"type"`
	Position [3]float64 `json:"position"`
	// Quaternion is ordered x, y, z, w
	Quaternion [4]float64 `json:"quaternion"`
	Sleeping   bool       `json:"sleeping"`
}

// Snapshot is the message broadcast to the clients after a step
type Snapshot struct {
	Time   float64     `json:"time"`
	Step   int         `json:"step"`
	Bodies []BodyState `json:"bodies"`
}

// SnapshotOf captures the interpolated transforms of every body in the world.
// Bodies reuses the storage of dst.
func SnapshotOf(world *impulse.World, dst []BodyState) Snapshot {
	dst = dst[:0]
	for _, body := range world.Bodies {
		transform := body.InterpolatedTransform
		q := transform.Quaternion
		dst = append(dst, BodyState{
			ID:         body.ID(),
			Type:       bodyTypeName(body.BodyType),
			Position:   [3]float64(transform.Position),
			Quaternion: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
			Sleeping:   body.SleepState == actor.Sleeping,
		})
	}

	return Snapshot{
		Time:   world.Time,
		Step:   world.StepNumber,
		Bodies: dst,
	}
}

func bodyTypeName(bodyType actor.BodyType) string {
	switch bodyType {
	case actor.BodyTypeStatic:
		return "static"
	case actor.BodyTypeKinematic:
		return "kinematic"
	default:
		return "dynamic"
	}
}

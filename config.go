package impulse

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/narrowphase"
	"github.com/akmonengine/impulse/sat"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidConfig is wrapped by every error returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid world config")

const DefaultWorkers = 1

// Config holds the world settings.
// The contact material fields configure the default contact material, used between bodies
// whose materials have no entry in the contact material table.
type Config struct {
	Gravity mgl64.Vec3

	// Solver
	Iterations int
	Tolerance  float64

	// AllowSleep enables the sleep state machine of the bodies
	AllowSleep bool
	// QuatNormalizeSkip normalizes the quaternions every QuatNormalizeSkip+1 steps
	QuatNormalizeSkip int
	// QuatNormalizeFast uses a first order approximation instead of a square root
	QuatNormalizeFast bool

	Friction                   float64
	Restitution                float64
	ContactEquationStiffness   float64
	ContactEquationRelaxation  float64
	FrictionEquationStiffness  float64
	FrictionEquationRelaxation float64
	EnableFrictionReduction    bool
	// WarmStartDistance lets a contact start from the impulses of the previous step's contact
	// closer than this, 0 disables warm starting
	WarmStartDistance float64

	// Workers above 1 spread the per body work of a step over goroutines
	Workers int
	// Broadphase defaults to a NaiveBroadphase
	Broadphase Broadphase
	SAT        sat.Options

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Gravity:                    mgl64.Vec3{0, -9.82, 0},
		Iterations:                 constraint.DefaultIterations,
		Tolerance:                  constraint.DefaultTolerance,
		Friction:                   0.3,
		Restitution:                0,
		ContactEquationStiffness:   1e7,
		ContactEquationRelaxation:  3,
		FrictionEquationStiffness:  1e7,
		FrictionEquationRelaxation: 3,
		WarmStartDistance:          narrowphase.DefaultWarmStartDistance,
		Workers:                    DefaultWorkers,
		SAT:                        sat.DefaultOptions(),
	}
}

func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d: %w", c.Iterations, ErrInvalidConfig)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("negative tolerance %g: %w", c.Tolerance, ErrInvalidConfig)
	}
	if c.QuatNormalizeSkip < 0 {
		return fmt.Errorf("negative quaternion normalize skip %d: %w", c.QuatNormalizeSkip, ErrInvalidConfig)
	}
	if c.ContactEquationStiffness <= 0 || c.FrictionEquationStiffness <= 0 {
		return fmt.Errorf("equation stiffness must be positive: %w", ErrInvalidConfig)
	}
	if c.ContactEquationRelaxation <= 0 || c.FrictionEquationRelaxation <= 0 {
		return fmt.Errorf("equation relaxation must be positive: %w", ErrInvalidConfig)
	}
	if c.Friction < 0 {
		return fmt.Errorf("negative friction %g: %w", c.Friction, ErrInvalidConfig)
	}
	if c.WarmStartDistance < 0 {
		return fmt.Errorf("negative warm start distance %g: %w", c.WarmStartDistance, ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("negative worker count %d: %w", c.Workers, ErrInvalidConfig)
	}
	if c.SAT.ContactSlop < 0 {
		return fmt.Errorf("negative contact slop %g: %w", c.SAT.ContactSlop, ErrInvalidConfig)
	}
	if c.SAT.ClipMaxDist < c.SAT.ClipMinDist {
		return fmt.Errorf("clip distance range [%g, %g] is empty: %w", c.SAT.ClipMinDist, c.SAT.ClipMaxDist, ErrInvalidConfig)
	}

	return nil
}

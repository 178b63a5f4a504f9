package actor

// Material describes the surface of a shape or body.
// A negative Friction or Restitution defers to the contact material.
type Material struct {
	id          int
	Name        string
	Friction    float64
	Restitution float64
}

func NewMaterial(name string) *Material {
	return &Material{
		id:          nextID(),
		Name:        name,
		Friction:    -1,
		Restitution: -1,
	}
}

func (m *Material) ID() int {
	return m.id
}

// ContactMaterial defines what happens when two materials meet
type ContactMaterial struct {
	Materials   [2]*Material
	Friction    float64
	Restitution float64

	ContactEquationStiffness   float64
	ContactEquationRelaxation  float64
	FrictionEquationStiffness  float64
	FrictionEquationRelaxation float64
}

// NewContactMaterial uses a friction and restitution of 0.3 and stiff equations
func NewContactMaterial(a, b *Material) *ContactMaterial {
	return &ContactMaterial{
		Materials:                  [2]*Material{a, b},
		Friction:                   0.3,
		Restitution:                0.3,
		ContactEquationStiffness:   1e7,
		ContactEquationRelaxation:  3,
		FrictionEquationStiffness:  1e7,
		FrictionEquationRelaxation: 3,
	}
}

type materialPair struct {
	a, b int
}

func makeMaterialPair(a, b *Material) materialPair {
	if a.id > b.id {
		a, b = b, a
	}
	return materialPair{a: a.id, b: b.id}
}

// ContactMaterialTable indexes contact materials by the unordered pair of material ids
type ContactMaterialTable struct {
	entries map[materialPair]*ContactMaterial
}

func NewContactMaterialTable() *ContactMaterialTable {
	return &ContactMaterialTable{entries: make(map[materialPair]*ContactMaterial)}
}

// Add ignores contact materials missing one of their materials
func (t *ContactMaterialTable) Add(cm *ContactMaterial) {
	if cm.Materials[0] == nil || cm.Materials[1] == nil {
		return
	}
	t.entries[makeMaterialPair(cm.Materials[0], cm.Materials[1])] = cm
}

// Get returns nil when either material is nil or no entry exists
func (t *ContactMaterialTable) Get(a, b *Material) *ContactMaterial {
	if a == nil || b == nil {
		return nil
	}
	return t.entries[makeMaterialPair(a, b)]
}

func (t *ContactMaterialTable) Len() int {
	return len(t.entries)
}

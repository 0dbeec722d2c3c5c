package stages

import (
	dErrors "induct/pkg/domain-errors"
)

// Gate holds the boolean checklist for whichever stage is under review.
// It is ephemeral and local to one verification session; it is never
// persisted and never shared between sessions.
type Gate struct {
	stage int
	items map[string]bool
	order []string
}

// NewGate creates a gate populated for the given stage, all items unchecked.
func NewGate(stage int) (*Gate, error) {
	g := &Gate{}
	if err := g.Reset(stage); err != nil {
		return nil, err
	}
	return g, nil
}

// Reset repopulates the gate with every required item for the stage, all false.
func (g *Gate) Reset(stage int) error {
	def, ok := Get(stage)
	if !ok {
		return dErrors.New(dErrors.CodeBadRequest, "unknown stage")
	}
	g.stage = stage
	g.order = def.Checklist
	g.items = make(map[string]bool, len(def.Checklist))
	for _, name := range def.Checklist {
		g.items[name] = false
	}
	return nil
}

// Stage returns the stage this gate was populated for.
func (g *Gate) Stage() int {
	return g.stage
}

// Toggle flips one item. Unknown item names are rejected.
func (g *Gate) Toggle(item string) error {
	v, ok := g.items[item]
	if !ok {
		return dErrors.New(dErrors.CodeUnknownChecklistItem, "unknown checklist item: "+item)
	}
	g.items[item] = !v
	return nil
}

// Set assigns one item explicitly. Unknown item names are rejected.
func (g *Gate) Set(item string, value bool) error {
	if _, ok := g.items[item]; !ok {
		return dErrors.New(dErrors.CodeUnknownChecklistItem, "unknown checklist item: "+item)
	}
	g.items[item] = value
	return nil
}

// SetAll assigns every item in one call (the "Select All" convenience).
func (g *Gate) SetAll(value bool) {
	for name := range g.items {
		g.items[name] = value
	}
}

// AllChecked reports whether every item is true. Pure predicate, no side effects.
func (g *Gate) AllChecked() bool {
	for _, v := range g.items {
		if !v {
			return false
		}
	}
	return true
}

// Items returns the current item states in definition order.
func (g *Gate) Items() map[string]bool {
	out := make(map[string]bool, len(g.items))
	for k, v := range g.items {
		out[k] = v
	}
	return out
}

// Apply sets the gate from a submitted checklist map. Every key must be a
// defined item for the stage; items absent from the map stay unchecked.
func (g *Gate) Apply(submitted map[string]bool) error {
	for name, value := range submitted {
		if err := g.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

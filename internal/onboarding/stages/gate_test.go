package stages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "induct/pkg/domain-errors"
)

func TestDefinitionsTable(t *testing.T) {
	t.Run("eight stages defined", func(t *testing.T) {
		all := All()
		require.Len(t, all, Terminal)
		for i, def := range all {
			assert.Equal(t, i+1, def.Number)
			assert.NotEmpty(t, def.Name)
			assert.NotEmpty(t, def.Checklist, "stage %d must have checklist items", def.Number)
		}
	})

	t.Run("only the terminal stage requires a scan", func(t *testing.T) {
		for _, def := range All() {
			assert.Equal(t, def.Number == Terminal, def.RequiresScan, "stage %d", def.Number)
		}
	})

	t.Run("out of range stages are rejected", func(t *testing.T) {
		for _, n := range []int{0, -1, 9, 100} {
			_, ok := Get(n)
			assert.False(t, ok, "stage %d", n)
			assert.False(t, IsValid(n))
		}
	})
}

func TestGateReset(t *testing.T) {
	g, err := NewGate(3)
	require.NoError(t, err)

	def, _ := Get(3)
	items := g.Items()
	require.Len(t, items, len(def.Checklist))
	for _, name := range def.Checklist {
		checked, ok := items[name]
		assert.True(t, ok, "item %s should be populated", name)
		assert.False(t, checked, "item %s should start unchecked", name)
	}
	assert.False(t, g.AllChecked())
}

func TestGateRejectsUnknownStage(t *testing.T) {
	_, err := NewGate(0)
	assert.Error(t, err)
	_, err = NewGate(9)
	assert.Error(t, err)
}

func TestGateToggle(t *testing.T) {
	g, err := NewGate(2)
	require.NoError(t, err)

	require.NoError(t, g.Toggle("references_contacted"))
	assert.True(t, g.Items()["references_contacted"])

	require.NoError(t, g.Toggle("references_contacted"))
	assert.False(t, g.Items()["references_contacted"])

	err = g.Toggle("no_such_item")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownChecklistItem))
}

func TestGateAllCheckedForEveryStage(t *testing.T) {
	// One unchecked item must hold the gate closed, for every stage.
	for _, def := range All() {
		g, err := NewGate(def.Number)
		require.NoError(t, err)

		for _, item := range def.Checklist {
			g.SetAll(true)
			require.NoError(t, g.Set(item, false))
			assert.False(t, g.AllChecked(), "stage %d with %s unchecked", def.Number, item)
		}

		g.SetAll(true)
		assert.True(t, g.AllChecked(), "stage %d fully checked", def.Number)
	}
}

func TestGateSetAll(t *testing.T) {
	g, err := NewGate(8)
	require.NoError(t, err)

	g.SetAll(true)
	assert.True(t, g.AllChecked())

	g.SetAll(false)
	assert.False(t, g.AllChecked())
	for name, v := range g.Items() {
		assert.False(t, v, "item %s", name)
	}
}

func TestGateApply(t *testing.T) {
	t.Run("applies submitted items", func(t *testing.T) {
		g, err := NewGate(2)
		require.NoError(t, err)

		require.NoError(t, g.Apply(map[string]bool{
			"references_contacted":   true,
			"background_check_clear": true,
		}))
		assert.True(t, g.AllChecked())
	})

	t.Run("missing items stay unchecked", func(t *testing.T) {
		g, err := NewGate(2)
		require.NoError(t, err)

		require.NoError(t, g.Apply(map[string]bool{"references_contacted": true}))
		assert.False(t, g.AllChecked())
	})

	t.Run("unknown items are rejected", func(t *testing.T) {
		g, err := NewGate(2)
		require.NoError(t, err)

		err = g.Apply(map[string]bool{"made_up_item": true})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownChecklistItem))
	})
}

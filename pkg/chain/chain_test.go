package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowkit/filterchain/pkg/catalog"
	"github.com/glowkit/filterchain/pkg/registry"
)

func fptr(v float64) *float64 { return &v }

func bloomDef() *catalog.FilterDefinition {
	return &catalog.FilterDefinition{
		Name:       "BloomFilter",
		Category:   "stylize",
		InputKeys:  []string{registry.KeyInputImage, "inputIntensity", "inputRadius"},
		OutputKeys: []string{registry.KeyOutputImage},
		Parameters: []catalog.ParameterDefinition{
			{Name: registry.KeyInputImage, DisplayName: "Image", ClassType: "image", Type: catalog.TypeImage, ImageRole: true},
			{Name: "inputIntensity", DisplayName: "Intensity", ClassType: "number", Type: catalog.TypeScalar, Default: fptr(0.5)},
			{Name: "inputRadius", DisplayName: "Radius", ClassType: "number", Type: catalog.TypeDistance, Min: fptr(0), SliderMax: fptr(100)},
		},
	}
}

func generatorDef() *catalog.FilterDefinition {
	return &catalog.FilterDefinition{
		Name:       "LinearGradient",
		OutputKeys: []string{registry.KeyOutputImage},
	}
}

func TestAppend_SeedsDefaults(t *testing.T) {
	c, err := New().Append(bloomDef())
	require.NoError(t, err)

	entries := c.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "BloomFilter", e.Name)
	assert.True(t, e.Enabled)

	// Image role excluded; numeric params seeded from preferred defaults.
	require.Len(t, e.Overrides, 2)
	assert.Equal(t, Override{Name: "inputIntensity", DisplayName: "Intensity", Value: 0.5}, e.Overrides[0])
	assert.Equal(t, Override{Name: "inputRadius", DisplayName: "Radius", Value: 0}, e.Overrides[1])
}

func TestAppend_RejectsUnusable(t *testing.T) {
	_, err := New().Append(generatorDef())
	assert.ErrorIs(t, err, ErrFilterNotUsable)
}

func TestAppend_SameFilterTwiceGetsDistinctIDs(t *testing.T) {
	c, err := New().Append(bloomDef())
	require.NoError(t, err)
	c, err = c.Append(bloomDef())
	require.NoError(t, err)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestMutations_DoNotAliasSnapshots(t *testing.T) {
	c1, err := New().Append(bloomDef())
	require.NoError(t, err)
	id := c1.Entries()[0].ID

	c2, err := c1.SetParameter(id, "inputIntensity", 0.9)
	require.NoError(t, err)
	c3 := c2.SetEnabled(id, false)

	assert.Equal(t, 0.5, c1.Entries()[0].Overrides[0].Value)
	assert.Equal(t, 0.9, c2.Entries()[0].Overrides[0].Value)
	assert.True(t, c2.Entries()[0].Enabled)
	assert.False(t, c3.Entries()[0].Enabled)
}

func TestRemove(t *testing.T) {
	c, _ := New().Append(bloomDef())
	c, _ = c.Append(bloomDef())
	c, _ = c.Append(bloomDef())
	ids := []string{c.Entries()[0].ID, c.Entries()[1].ID, c.Entries()[2].ID}

	c = c.Remove(ids[1])

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, ids[0], entries[0].ID)
	assert.Equal(t, ids[2], entries[1].ID)

	// Absent ID is a no-op.
	assert.Equal(t, 2, c.Remove("missing").Len())
}

func TestMove_ClampsOutOfRange(t *testing.T) {
	c, _ := New().Append(bloomDef())
	c, _ = c.Append(bloomDef())
	c, _ = c.Append(bloomDef())
	first := c.Entries()[0].ID

	moved := c.Move(first, 99)
	assert.Equal(t, first, moved.Entries()[2].ID)

	moved = moved.Move(first, -5)
	assert.Equal(t, first, moved.Entries()[0].ID)

	// Absent ID is a no-op.
	assert.True(t, moved.Move("missing", 1).Equal(moved))
}

func TestSetParameter(t *testing.T) {
	c, _ := New().Append(bloomDef())
	c, _ = c.Append(bloomDef())
	entries := c.Entries()

	got, err := c.SetParameter(entries[0].ID, "inputIntensity", 0.8)
	require.NoError(t, err)
	assert.Equal(t, 0.8, got.Entries()[0].Overrides[0].Value)
	// The same-named parameter on the other entry is untouched.
	assert.Equal(t, 0.5, got.Entries()[1].Overrides[0].Value)

	_, err = c.SetParameter(entries[0].ID, "inputBogus", 1)
	assert.ErrorIs(t, err, ErrUnknownParameter)

	// Missing entry ID is a no-op, not an error.
	got, err = c.SetParameter("missing", "inputIntensity", 1)
	require.NoError(t, err)
	assert.True(t, got.Equal(c))
}

func TestEqual(t *testing.T) {
	c1, _ := New().Append(bloomDef())
	id := c1.Entries()[0].ID

	assert.True(t, c1.Equal(c1))

	c2, _ := c1.SetParameter(id, "inputIntensity", 0.6)
	assert.False(t, c1.Equal(c2))

	c3 := c1.SetEnabled(id, false)
	assert.False(t, c1.Equal(c3))

	// A no-op mutation produces an equal chain.
	c4, _ := c1.SetParameter(id, "inputIntensity", 0.5)
	assert.True(t, c1.Equal(c4))
}

func TestEqual_OrderMatters(t *testing.T) {
	c, _ := New().Append(bloomDef())
	c, _ = c.Append(bloomDef())
	first := c.Entries()[0].ID

	reordered := c.Move(first, 1)
	assert.False(t, c.Equal(reordered))
}

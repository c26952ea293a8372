package imagecompleter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings_Valid(t *testing.T) {
	s := DefaultSettings(400, 300)
	require.NoError(t, s.Validate())
	assert.GreaterOrEqual(t, s.LatticeGapX, latticeGapMin)
	assert.GreaterOrEqual(t, s.LatticeGapY, latticeGapMin)
	assert.Equal(t, s.LatticeGapX*patchToLatticeRatio, s.PatchWidth)
	assert.Equal(t, s.LatticeGapY*patchToLatticeRatio, s.PatchHeight)
}

func TestDefaultSettings_GapRatioClamped(t *testing.T) {
	// A very wide, short image should never let gapX/gapY exceed 2.
	s := DefaultSettings(2000, 50)
	ratio := float64(s.LatticeGapX) / float64(s.LatticeGapY)
	assert.LessOrEqual(t, ratio, 2.0001)

	s2 := DefaultSettings(50, 2000)
	ratio2 := float64(s2.LatticeGapY) / float64(s2.LatticeGapX)
	assert.LessOrEqual(t, ratio2, 2.0001)
}

func TestSettings_Validate_CollectsEveryViolation(t *testing.T) {
	s := Settings{
		LowResolutionPassesMax: -5,
		NumIterations:          0,
		LatticeGapX:            1,
		LatticeGapY:            1,
		PatchWidth:             1,
		PatchHeight:            1,
		PostPruneLabelsMin:     0,
		PostPruneLabelsMax:     -1,
		CompositorPatchType:    CompositorPatchType(99),
		CompositorPatchBlender: CompositorPatchBlender(99),
		CompositorOutputBlender: CompositorOutputBlender(99),
	}
	err := s.Validate()
	require.Error(t, err)

	var settingsErr *SettingsError
	require.True(t, errors.As(err, &settingsErr))
	assert.GreaterOrEqual(t, len(settingsErr.Fields), 9)
	assert.True(t, errors.Is(err, ErrInvalidSettings))
}

func TestSettings_ScaleDownThenUp_RestoresOriginal(t *testing.T) {
	s := DefaultSettings(400, 400)
	original := s

	s.ScaleDown()
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, original.LatticeGapX/2, s.LatticeGapX)
	assert.Equal(t, original.PostPruneLabelsMin*4, s.PostPruneLabelsMin)

	s.ScaleUp()
	assert.Equal(t, 0, s.Depth())
	assert.Equal(t, original.LatticeGapX, s.LatticeGapX)
	assert.Equal(t, original.LatticeGapY, s.LatticeGapY)
	assert.Equal(t, original.PostPruneLabelsMin, s.PostPruneLabelsMin)
	assert.Equal(t, original.PatchWidth, s.PatchWidth)
}

func TestSettings_ScaleDown_NeverDropsGapBelowOne(t *testing.T) {
	s := settingsFromGap(1, 1)
	s.ScaleDown()
	assert.Equal(t, 1, s.LatticeGapX)
	assert.Equal(t, 1, s.LatticeGapY)
}

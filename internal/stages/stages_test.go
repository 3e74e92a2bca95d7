package stages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderMatchesStages(t *testing.T) {
	assert.Equal(t, []StageKey{
		Artifacts, BusinessCase, Requirements,
		SolutionArchitecture, EffortEstimate, Quote,
	}, Order)
}

func TestIndex(t *testing.T) {
	assert.Equal(t, 0, Index(Artifacts))
	assert.Equal(t, 5, Index(Quote))
	assert.Equal(t, -1, Index("Unknown"))
}

func TestNext(t *testing.T) {
	assert.Equal(t, BusinessCase, Next(Artifacts))
	assert.Equal(t, Quote, Next(EffortEstimate))
	assert.Equal(t, "", Next(Quote))
	assert.Equal(t, "", Next("Unknown"))
}

func TestIsValidAndIsFinal(t *testing.T) {
	assert.True(t, IsValid(SolutionArchitecture))
	assert.False(t, IsValid("Discovery"))
	assert.True(t, IsFinal(Quote))
	assert.False(t, IsFinal(Artifacts))
}

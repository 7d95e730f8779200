package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		v := float64(i)
		x = append(x, []float64{v, float64(i % 3)})
		if v < 20 {
			y = append(y, 100)
		} else {
			y = append(y, 500)
		}
	}
	return x, y
}

func TestTrainRandomForestFitsStep(t *testing.T) {
	x, y := stepData()
	forest, err := TrainRandomForest(x, y, []string{"a", "b"}, ForestOptions{NEstimators: 25, Seed: 42, MinSamplesLeaf: 1})
	require.NoError(t, err)
	require.Len(t, forest.Trees, 25)

	low, err := forest.Predict([]float64{2, 0})
	require.NoError(t, err)
	high, err := forest.Predict([]float64{35, 1})
	require.NoError(t, err)

	assert.InDelta(t, 100, low, 1)
	assert.InDelta(t, 500, high, 1)
	assert.Greater(t, forest.TrainingR2, 0.95)
	assert.NoError(t, forest.validate())
}

func TestTrainRandomForestDeterministic(t *testing.T) {
	x, y := stepData()
	opts := ForestOptions{NEstimators: 10, Seed: 42}
	a, err := TrainRandomForest(x, y, []string{"a", "b"}, opts)
	require.NoError(t, err)
	b, err := TrainRandomForest(x, y, []string{"a", "b"}, opts)
	require.NoError(t, err)
	assert.Equal(t, a.Trees, b.Trees)
}

func TestTrainRandomForestMaxDepth(t *testing.T) {
	x, y := stepData()
	forest, err := TrainRandomForest(x, y, []string{"a", "b"}, ForestOptions{NEstimators: 5, Seed: 1, MaxDepth: 1})
	require.NoError(t, err)
	for _, tree := range forest.Trees {
		assert.LessOrEqual(t, len(tree.Nodes), 3)
	}
}

func TestTrainRandomForestConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []float64{7, 7, 7}
	forest, err := TrainRandomForest(x, y, []string{"a"}, DefaultForestOptions())
	require.NoError(t, err)
	p, err := forest.Predict([]float64{10})
	require.NoError(t, err)
	assert.Equal(t, 7.0, p)
	assert.False(t, math.IsNaN(forest.TrainingR2))
}

func TestTrainRandomForestInvalidInput(t *testing.T) {
	_, err := TrainRandomForest(nil, nil, []string{"a"}, DefaultForestOptions())
	assert.Error(t, err)

	_, err = TrainRandomForest([][]float64{{1, 2}}, []float64{1}, []string{"a"}, DefaultForestOptions())
	assert.Error(t, err)
}

func TestPredictWidthMismatch(t *testing.T) {
	x, y := stepData()
	forest, err := TrainRandomForest(x, y, []string{"a", "b"}, ForestOptions{NEstimators: 2, Seed: 42})
	require.NoError(t, err)

	_, err = forest.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestDefaultForestOptions(t *testing.T) {
	opts := DefaultForestOptions()
	assert.Equal(t, 100, opts.NEstimators)
	assert.Equal(t, int64(42), opts.Seed)
}

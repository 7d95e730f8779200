package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ForestOptions ランダムフォレストの学習パラメータ
type ForestOptions struct {
	NEstimators    int
	Seed           int64
	MaxDepth       int // 0 = 制限なし
	MinSamplesLeaf int
}

// DefaultForestOptions 100本・乱数シード42（再現性のため固定）
func DefaultForestOptions() ForestOptions {
	return ForestOptions{
		NEstimators:    100,
		Seed:           42,
		MinSamplesLeaf: 1,
	}
}

// TreeNode 回帰木のノード。Leaf のときは Value のみ有効。
type TreeNode struct {
	Feature   int     `msgpack:"f"`
	Threshold float64 `msgpack:"t"`
	Left      int     `msgpack:"l"`
	Right     int     `msgpack:"r"`
	Value     float64 `msgpack:"v"`
	Leaf      bool    `msgpack:"leaf"`
}

// RegressionTree ノードをフラットな配列で保持する CART 回帰木
type RegressionTree struct {
	Nodes []TreeNode `msgpack:"nodes"`
}

func (t *RegressionTree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// RandomForest 学習済みの回帰モデル。学習後は変更しないため並行読み取りに安全。
type RandomForest struct {
	FeatureNames []string         `msgpack:"feature_names"`
	NEstimators  int              `msgpack:"n_estimators"`
	Seed         int64            `msgpack:"seed"`
	MaxDepth     int              `msgpack:"max_depth"`
	TrainingRows int              `msgpack:"training_rows"`
	TrainingR2   float64          `msgpack:"training_r2"`
	Trees        []RegressionTree `msgpack:"trees"`
}

// Predict averages the trees' outputs for one feature vector.
func (f *RandomForest) Predict(x []float64) (float64, error) {
	if len(x) != len(f.FeatureNames) {
		return 0, fmt.Errorf("%w: got %d features, model expects %d", ErrFeatureMismatch, len(x), len(f.FeatureNames))
	}
	if len(f.Trees) == 0 {
		return 0, errors.New("model has no trees")
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// validate checks the structural integrity of a decoded forest.
func (f *RandomForest) validate() error {
	if len(f.FeatureNames) == 0 {
		return errors.New("no feature names")
	}
	if len(f.Trees) == 0 {
		return errors.New("no trees")
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= len(f.FeatureNames) {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
			// 子ノードは必ず親より後ろに並ぶ
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: invalid children", ti, ni)
			}
		}
	}
	return nil
}

// TrainRandomForest fits a bagged ensemble of CART regression trees. Every tree
// sees a bootstrap sample and all features at each split.
func TrainRandomForest(x [][]float64, y []float64, featureNames []string, opts ForestOptions) (*RandomForest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("training data: %d rows, %d targets", len(x), len(y))
	}
	for i, row := range x {
		if len(row) != len(featureNames) {
			return nil, fmt.Errorf("training row %d has %d features, want %d", i, len(row), len(featureNames))
		}
	}
	if opts.NEstimators <= 0 {
		opts.NEstimators = DefaultForestOptions().NEstimators
	}
	if opts.MinSamplesLeaf <= 0 {
		opts.MinSamplesLeaf = 1
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	forest := &RandomForest{
		FeatureNames: append([]string(nil), featureNames...),
		NEstimators:  opts.NEstimators,
		Seed:         opts.Seed,
		MaxDepth:     opts.MaxDepth,
		TrainingRows: len(x),
		Trees:        make([]RegressionTree, 0, opts.NEstimators),
	}

	n := len(x)
	for t := 0; t < opts.NEstimators; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		b := &treeBuilder{x: x, y: y, opts: opts}
		b.grow(sample, 0)
		forest.Trees = append(forest.Trees, RegressionTree{Nodes: b.nodes})
	}

	estimates := make([]float64, n)
	for i, row := range x {
		estimates[i], _ = forest.Predict(row)
	}
	if r2 := stat.RSquaredFrom(estimates, y, nil); !math.IsNaN(r2) {
		forest.TrainingR2 = r2
	}
	return forest, nil
}

type treeBuilder struct {
	x     [][]float64
	y     []float64
	opts  ForestOptions
	nodes []TreeNode
}

// grow appends the subtree for idx and returns its root position.
func (b *treeBuilder) grow(idx []int, depth int) int {
	pos := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{})

	ys := make([]float64, len(idx))
	for i, r := range idx {
		ys[i] = b.y[r]
	}
	mean := stat.Mean(ys, nil)

	if len(idx) < 2*b.opts.MinSamplesLeaf ||
		(b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth) ||
		floats.Max(ys) == floats.Min(ys) {
		b.nodes[pos] = TreeNode{Leaf: true, Value: mean}
		return pos
	}

	feature, threshold, ok := b.bestSplit(idx, ys)
	if !ok {
		b.nodes[pos] = TreeNode{Leaf: true, Value: mean}
		return pos
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, r := range idx {
		if b.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[pos] = TreeNode{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: mean}
	return pos
}

// bestSplit finds the split minimising the summed squared error of both children.
func (b *treeBuilder) bestSplit(idx []int, ys []float64) (int, float64, bool) {
	n := len(idx)
	minLeaf := b.opts.MinSamplesLeaf
	total := floats.Sum(ys)
	var totalSq float64
	for _, v := range ys {
		totalSq += v * v
	}
	parentSSE := totalSq - total*total/float64(n)

	bestFeature, bestThreshold := -1, 0.0
	bestSSE := parentSSE
	order := make([]int, n)
	for f := 0; f < len(b.x[idx[0]]); f++ {
		copy(order, idx)
		sort.SliceStable(order, func(i, j int) bool { return b.x[order[i]][f] < b.x[order[j]][f] })
		if b.x[order[0]][f] == b.x[order[n-1]][f] {
			continue
		}

		var sumL, sqL float64
		for k := 1; k < n; k++ {
			v := b.y[order[k-1]]
			sumL += v
			sqL += v * v
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo, hi := b.x[order[k-1]][f], b.x[order[k]][f]
			if lo == hi {
				continue
			}
			sumR, sqR := total-sumL, totalSq-sqL
			sse := (sqL - sumL*sumL/float64(k)) + (sqR - sumR*sumR/float64(n-k))
			if sse < bestSSE-1e-12*math.Max(1, math.Abs(bestSSE)) {
				bestSSE = sse
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

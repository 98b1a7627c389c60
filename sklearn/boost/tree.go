package boost

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Node is one node of a regression tree. Leaves have Left == Right == -1.
type Node struct {
	Feature     int     // split feature index
	Threshold   float64 // values < Threshold go left
	DefaultLeft bool    // direction for NaN
	Left        int
	Right       int
	Value       float64 // leaf output, learning rate applied
	Gain        float64 // loss reduction of the split
	Cover       float64 // hessian sum of the samples reaching the node
	Depth       int
}

// IsLeaf reports whether n is a terminal node.
func (n *Node) IsLeaf() bool {
	return n.Left == -1 && n.Right == -1
}

// Tree is a binary regression tree stored as a flat node slice; the root is
// Nodes[0].
type Tree struct {
	Nodes []Node
}

// NumLeaves returns the number of terminal nodes.
func (t *Tree) NumLeaves() int {
	n := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			n++
		}
	}
	return n
}

// Predict returns the leaf value reached by row.
func (t *Tree) Predict(row []float64) float64 {
	i := 0
	for {
		node := &t.Nodes[i]
		if node.IsLeaf() {
			return node.Value
		}
		v := row[node.Feature]
		switch {
		case math.IsNaN(v):
			if node.DefaultLeft {
				i = node.Left
			} else {
				i = node.Right
			}
		case v < node.Threshold:
			i = node.Left
		default:
			i = node.Right
		}
	}
}

// Booster is a fitted ensemble: a base score plus the sum of tree outputs.
type Booster struct {
	BaseScore float64
	Trees     []Tree
	NFeatures int
	Objective string
}

// PredictRow returns the raw prediction for one row.
func (b *Booster) PredictRow(row []float64) float64 {
	out := b.BaseScore
	for i := range b.Trees {
		out += b.Trees[i].Predict(row)
	}
	return out
}

// FeatureImportance returns the total split gain per feature, normalised
// to sum to 1. A model without splits returns all zeros.
func (b *Booster) FeatureImportance() []float64 {
	imp := make([]float64, b.NFeatures)
	var total float64
	for _, tree := range b.Trees {
		for _, node := range tree.Nodes {
			if node.IsLeaf() {
				continue
			}
			imp[node.Feature] += node.Gain
			total += node.Gain
		}
	}
	if total > 0 {
		floats.Scale(1/total, imp)
	}
	return imp
}

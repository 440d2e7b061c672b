package components

import "math"

// ValueIndex is a scored position: the payload held at every leaf of a
// MaxSegmentTree. Ordering is lexicographic on (Value, Index) with the
// SMALLER index winning ties, so an argmax over equal scores always
// lands on the leftmost candidate.
type ValueIndex struct {
	Value int
	Index int
}

// Erased is the sentinel a leaf takes after Reset. It compares strictly
// below every live leaf (live values start at 0 and only ever have
// non-negative deltas added).
var Erased = ValueIndex{Value: math.MinInt, Index: -1}

// better reports whether a should win over b in a max query.
func better(a, b ValueIndex) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	return a.Index < b.Index
}

func maxOf(a, b ValueIndex) ValueIndex {
	if better(b, a) {
		return b
	}
	return a
}

// MaxSegmentTree is an array-backed segment tree over the index interval
// [0, size) supporting three operations:
//
//   - Add(l, r, delta): add delta to every leaf value in the half-open
//     interval [l, r), lazily (deltas compose by addition)
//   - Max(l, r): argmax of (value, index) over the closed interval [l, r]
//   - Reset(i): erase leaf i so it loses every future max query
//
// Leaf i starts at (0, i). Node n's children are 2n and 2n+1; postponed
// deltas live in a parallel array.
type MaxSegmentTree struct {
	size int
	vals []ValueIndex
	lazy []int
}

// NewMaxSegmentTree builds a tree covering [0, size).
func NewMaxSegmentTree(size int) *MaxSegmentTree {
	t := &MaxSegmentTree{size: size}
	if size > 0 {
		t.vals = make([]ValueIndex, 4*size)
		t.lazy = make([]int, 4*size)
		t.build(1, 0, size)
	}
	return t
}

// Size returns the number of leaves.
func (t *MaxSegmentTree) Size() int {
	return t.size
}

func (t *MaxSegmentTree) build(node, left, right int) {
	if right-left == 1 {
		t.vals[node] = ValueIndex{Value: 0, Index: left}
		return
	}
	mid := left + (right-left)/2
	t.build(2*node, left, mid)
	t.build(2*node+1, mid, right)
	t.vals[node] = maxOf(t.vals[2*node], t.vals[2*node+1])
}

// apply folds a postponed delta into a node: its aggregate shifts by
// delta and the delta is remembered for the node's subtree. A node whose
// whole subtree is erased keeps the exact Erased sentinel.
func (t *MaxSegmentTree) apply(node, delta int) {
	if t.vals[node] != Erased {
		t.vals[node].Value += delta
	}
	t.lazy[node] += delta
}

func (t *MaxSegmentTree) push(node int) {
	if t.lazy[node] != 0 {
		t.apply(2*node, t.lazy[node])
		t.apply(2*node+1, t.lazy[node])
		t.lazy[node] = 0
	}
}

// Add adds delta to every leaf in the half-open interval [left, right).
// Bounds outside [0, size) are clamped; an empty interval is a no-op.
func (t *MaxSegmentTree) Add(left, right, delta int) {
	if t.size == 0 {
		return
	}
	if left < 0 {
		left = 0
	}
	if right > t.size {
		right = t.size
	}
	if left >= right {
		return
	}
	t.add(1, 0, t.size, left, right, delta)
}

func (t *MaxSegmentTree) add(node, nodeLeft, nodeRight, left, right, delta int) {
	if right <= nodeLeft || nodeRight <= left {
		return
	}
	if left <= nodeLeft && nodeRight <= right {
		t.apply(node, delta)
		return
	}
	t.push(node)
	mid := nodeLeft + (nodeRight-nodeLeft)/2
	t.add(2*node, nodeLeft, mid, left, right, delta)
	t.add(2*node+1, mid, nodeRight, left, right, delta)
	t.vals[node] = maxOf(t.vals[2*node], t.vals[2*node+1])
}

// Max returns the lexicographic maximum (value, index) over the CLOSED
// interval [left, right], with the smaller index breaking ties. Querying
// an empty tree or a fully out-of-range interval returns Erased.
func (t *MaxSegmentTree) Max(left, right int) ValueIndex {
	if t.size == 0 {
		return Erased
	}
	return t.query(1, 0, t.size, left, right+1)
}

func (t *MaxSegmentTree) query(node, nodeLeft, nodeRight, left, right int) ValueIndex {
	if right <= nodeLeft || nodeRight <= left {
		return Erased
	}
	if left <= nodeLeft && nodeRight <= right {
		return t.vals[node]
	}
	t.push(node)
	mid := nodeLeft + (nodeRight-nodeLeft)/2
	return maxOf(
		t.query(2*node, nodeLeft, mid, left, right),
		t.query(2*node+1, mid, nodeRight, left, right),
	)
}

// Reset erases leaf i: it takes the sentinel value and re-aggregates its
// ancestors, so no interval containing i returns it again unless every
// other leaf in the interval is erased too. Out-of-range i is ignored.
func (t *MaxSegmentTree) Reset(i int) {
	if i < 0 || i >= t.size {
		return
	}
	t.reset(1, 0, t.size, i)
}

func (t *MaxSegmentTree) reset(node, nodeLeft, nodeRight, i int) {
	if nodeRight-nodeLeft == 1 {
		t.vals[node] = Erased
		return
	}
	t.push(node)
	mid := nodeLeft + (nodeRight-nodeLeft)/2
	if i < mid {
		t.reset(2*node, nodeLeft, mid, i)
	} else {
		t.reset(2*node+1, mid, nodeRight, i)
	}
	t.vals[node] = maxOf(t.vals[2*node], t.vals[2*node+1])
}

/******************************************************************************************[Heap.h]
Copyright (c) 2003-2006, Niklas Een, Niklas Sorensson
Copyright (c) 2007-2010, Niklas Sorensson

Permission is hereby granted, free of charge, to any person obtaining a copy of this software and
associated documentation files (the "Software"), to deal in the Software without restriction,
including without limitation the rights to use, copy, modify, merge, publish, distribute,
sublicense, and/or sell copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all copies or
substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT
NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM,
DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT
OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
**************************************************************************************************/

package hypergraph

// The frontier is a binary min-heap of TNodes waiting to be explored.
// It is inspired from Minisat's mtl/Heap.h, without the decrease/increase key
// support since a TNode's cost never changes once built.
//
// TNodes are ordered by cost, then by id. Since ids are given in creation order,
// ties are broken by insertion order and a search is deterministic.
type frontier struct {
	content []*TNode
}

func (f *frontier) lt(t1, t2 *TNode) bool {
	if t1.cost != t2.cost {
		return t1.cost < t2.cost
	}
	return t1.id < t2.id
}

// Traversal functions.
func left(i int) int   { return i*2 + 1 }
func right(i int) int  { return (i + 1) * 2 }
func parent(i int) int { return (i - 1) >> 1 }

func (f *frontier) percolateUp(i int) {
	x := f.content[i]
	p := parent(i)
	for i != 0 && f.lt(x, f.content[p]) {
		f.content[i] = f.content[p]
		i = p
		p = parent(p)
	}
	f.content[i] = x
}

func (f *frontier) percolateDown(i int) {
	x := f.content[i]
	for left(i) < len(f.content) {
		var child int
		if right(i) < len(f.content) && f.lt(f.content[right(i)], f.content[left(i)]) {
			child = right(i)
		} else {
			child = left(i)
		}
		if !f.lt(f.content[child], x) {
			break
		}
		f.content[i] = f.content[child]
		i = child
	}
	f.content[i] = x
}

func (f *frontier) len() int    { return len(f.content) }
func (f *frontier) empty() bool { return len(f.content) == 0 }

func (f *frontier) push(t *TNode) {
	f.content = append(f.content, t)
	f.percolateUp(len(f.content) - 1)
}

// removeMin pops the cheapest TNode. The frontier must not be empty.
func (f *frontier) removeMin() *TNode {
	x := f.content[0]
	last := len(f.content) - 1
	f.content[0] = f.content[last]
	f.content[last] = nil
	f.content = f.content[:last]
	if len(f.content) > 1 {
		f.percolateDown(0)
	}
	return x
}

package browse

// Target is where a step starts: a bare content id to fetch, or a node
// from a previous step. An expanded node (one that already has children)
// is used without fetching it again.
type Target[M any] struct {
	ID   string
	Node *Node[M]
}

// IDTarget targets a content id.
func IDTarget[M any](id string) Target[M] {
	return Target[M]{ID: id}
}

// NodeTarget targets a node.
func NodeTarget[M any](node *Node[M]) Target[M] {
	return Target[M]{ID: node.ID, Node: node}
}

// NodeTargets targets each of nodes, in order.
func NodeTargets[M any](nodes []*Node[M]) []Target[M] {
	targets := make([]Target[M], 0, len(nodes))
	for _, n := range nodes {
		targets = append(targets, NodeTarget(n))
	}
	return targets
}

// ContentID returns the id to fetch.
func (t Target[M]) ContentID() string {
	if t.Node != nil {
		return t.Node.ID
	}
	return t.ID
}

// MetadataFunc derives metadata for child. parent is nil when the step
// target was a bare id. A nil result means the child has no metadata.
type MetadataFunc[M any] func(child *Node[M], parent *Node[M]) *M

// Step is one level of a walk.
//
// Steps are plain values. Advance must be a pure function of the
// accumulated output: the same output always yields the same next steps.
type Step[M any] struct {
	Targets []Target[M]

	// Concurrency is how many targets are fetched at once. Zero means all.
	Concurrency int

	// Metadata is applied to every child of a freshly fetched target.
	Metadata MetadataFunc[M]

	// Matcher decides which children are kept. Nil keeps all.
	Matcher func(*Node[M]) bool

	// Sorter reorders the whole accumulated output after each chunk. It
	// must return a new slice rather than sorting in place.
	Sorter func([]*Node[M]) []*Node[M]

	// EarlyExit stops the step before the next chunk is fetched.
	EarlyExit func([]*Node[M]) bool

	// Advance produces the next steps from the accumulated output. When it
	// returns steps, their result replaces this step's output.
	Advance func([]*Node[M]) []Step[M]
}

// chunks partitions the targets by the step's concurrency.
func (s Step[M]) chunks() [][]Target[M] {
	size := s.Concurrency
	if size <= 0 || size > len(s.Targets) {
		size = len(s.Targets)
	}
	if size == 0 {
		return nil
	}

	out := make([][]Target[M], 0, (len(s.Targets)+size-1)/size)
	for start := 0; start < len(s.Targets); start += size {
		end := min(start+size, len(s.Targets))
		out = append(out, s.Targets[start:end])
	}
	return out
}

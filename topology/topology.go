// Package topology maps cache affinities to CPU sets and provides a
// cache.Pinner that runs shard allocation on those CPUs.
//
// It is a thin boundary adapter: the cache engine only sees the
// cache.Pinner interface and is usable without this package.
package topology

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/IvanBrykalov/numacache/cache"
)

// SysfsNodeRoot is where Linux exposes NUMA nodes.
const SysfsNodeRoot = "/sys/devices/system/node"

// Node is one NUMA node and the CPUs it contains.
type Node struct {
	ID   int
	CPUs []int
}

// Map assigns a CPU set to every affinity.
type Map map[cache.Affinity][]int

// FromNodes uses each node ID as the affinity token, in node order.
func FromNodes(nodes []Node) ([]cache.Affinity, Map) {
	affs := make([]cache.Affinity, 0, len(nodes))
	m := make(Map, len(nodes))
	for _, n := range nodes {
		a := cache.Affinity(n.ID)
		affs = append(affs, a)
		m[a] = slices.Clone(n.CPUs)
	}
	return affs, m
}

// PerCPU returns n affinities 0..n-1, each bound to the CPU of the same number.
func PerCPU(n int) ([]cache.Affinity, Map) {
	affs := make([]cache.Affinity, n)
	m := make(Map, n)
	for i := range affs {
		affs[i] = cache.Affinity(i)
		m[affs[i]] = []int{i}
	}
	return affs, m
}

// Nodes lists the NUMA nodes under root (normally SysfsNodeRoot), sorted by ID.
func Nodes(root string) ([]Node, error) {
	dirs, err := filepath.Glob(filepath.Join(root, "node[0-9]*"))
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("topology: no NUMA nodes under %s", root)
	}

	nodes := make([]Node, 0, len(dirs))
	for _, d := range dirs {
		id, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(d), "node"))
		if err != nil {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(d, "cpulist"))
		if err != nil {
			return nil, fmt.Errorf("topology: node %d: %w", id, err)
		}
		cpus, err := ParseCPUList(string(raw))
		if err != nil {
			return nil, fmt.Errorf("topology: node %d: %w", id, err)
		}
		if len(cpus) == 0 {
			continue // memory-only node
		}
		nodes = append(nodes, Node{ID: id, CPUs: cpus})
	}
	slices.SortFunc(nodes, func(a, b Node) int { return a.ID - b.ID })
	return nodes, nil
}

// ParseCPUList parses the kernel's cpulist format, e.g. "0-3,8,10-11".
func ParseCPUList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var cpus []int
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("bad cpulist %q: %w", s, err)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(hi); err != nil {
				return nil, fmt.Errorf("bad cpulist %q: %w", s, err)
			}
		}
		if first < 0 || last < first {
			return nil, fmt.Errorf("bad cpulist %q: range %s", s, part)
		}
		for c := first; c <= last; c++ {
			cpus = append(cpus, c)
		}
	}
	return cpus, nil
}

// Pinner implements cache.Pinner on top of a Map.
type Pinner struct {
	cpus Map
}

// NewPinner validates m and returns a Pinner for it.
func NewPinner(m Map) (*Pinner, error) {
	for a, cpus := range m {
		if len(cpus) == 0 {
			return nil, fmt.Errorf("topology: affinity %d has no CPUs", a)
		}
	}
	return &Pinner{cpus: m}, nil
}

// RunPinned runs fn on a dedicated OS thread restricted to a's CPUs and waits
// for it to finish.
func (p *Pinner) RunPinned(a cache.Affinity, fn func()) error {
	cpus, ok := p.cpus[a]
	if !ok {
		return fmt.Errorf("topology: no CPUs mapped for affinity %d", a)
	}
	return runOn(cpus, fn)
}

var _ cache.Pinner = (*Pinner)(nil)

// call runs fn and turns a panic into an error. On the pinned goroutine an
// unrecovered panic would kill the process and leave RunPinned waiting.
func call(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("topology: pinned function panicked: %v", r)
		}
	}()
	fn()
	return nil
}

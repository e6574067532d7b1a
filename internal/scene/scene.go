// Package scene groups normalized lines by scene id and exposes ordered
// traversal over them.
package scene

import (
	"sort"

	"github.com/lessonloop/scenario-backend/internal/types"
)

// DefaultScene is the entry scene used when a requested topic is absent.
const DefaultScene = "start"

// Index holds a dataset's lines grouped by scene, each group stable-sorted
// by numeric order. Built once per load and read-only afterwards.
type Index struct {
	scenes map[string][]types.Line
	ids    []string // first-appearance order
}

// Build constructs the index from normalized lines.
func Build(lines []types.Line) *Index {
	idx := &Index{scenes: make(map[string][]types.Line)}
	for _, l := range lines {
		if _, seen := idx.scenes[l.Scene]; !seen {
			idx.ids = append(idx.ids, l.Scene)
		}
		idx.scenes[l.Scene] = append(idx.scenes[l.Scene], l)
	}
	for id := range idx.scenes {
		group := idx.scenes[id]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Order < group[j].Order
		})
	}
	return idx
}

// Scene returns the ordered lines of one scene.
func (x *Index) Scene(id string) ([]types.Line, bool) {
	lines, ok := x.scenes[id]
	return lines, ok
}

// Contains reports whether the dataset has any lines for the scene.
func (x *Index) Contains(id string) bool {
	_, ok := x.scenes[id]
	return ok
}

// SceneIDs returns every scene id in first-appearance order.
func (x *Index) SceneIDs() []string {
	out := make([]string, len(x.ids))
	copy(out, x.ids)
	return out
}

// Len returns the number of scenes.
func (x *Index) Len() int { return len(x.scenes) }

// Start picks the scene playback should begin at: the requested scene when
// present, else the default entry scene, else the dataset's first scene.
// fellBack is true when the requested scene was not available, which callers
// surface as a non-fatal notice.
func (x *Index) Start(requested string) (id string, fellBack bool) {
	if x.Contains(requested) {
		return requested, false
	}
	if x.Contains(DefaultScene) {
		return DefaultScene, true
	}
	if len(x.ids) > 0 {
		return x.ids[0], true
	}
	return "", true
}

// Contains reports whether a dataset's scene set includes the given scene.
// Used by the source resolver's sufficiency check without building a full
// index.
func Contains(lines []types.Line, id string) bool {
	for _, l := range lines {
		if l.Scene == id {
			return true
		}
	}
	return false
}

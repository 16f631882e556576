package editor

import (
	"slices"

	"github.com/arcsuite/arcflow/pkg/models"
)

// Store is the ordered node list of the open workflow plus the current
// selection. At most one node is selected at a time.
type Store struct {
	nodes    []models.NodeInstance
	selected string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{nodes: []models.NodeInstance{}}
}

// Nodes returns a copy of the node list in insertion order.
func (s *Store) Nodes() []models.NodeInstance {
	return models.CloneNodes(s.nodes)
}

func (s *Store) Len() int {
	return len(s.nodes)
}

// Get returns the node with the given id.
func (s *Store) Get(id string) (models.NodeInstance, bool) {
	i := s.index(id)
	if i < 0 {
		return models.NodeInstance{}, false
	}

	return s.nodes[i].Clone(), true
}

// Append adds a node at the end of the list.
func (s *Store) Append(node models.NodeInstance) {
	s.nodes = append(s.nodes, node.Clone())
}

// Select makes id the selected node. Selecting an unknown id leaves the
// selection unchanged and returns false.
func (s *Store) Select(id string) bool {
	if s.index(id) < 0 {
		return false
	}

	s.selected = id

	return true
}

func (s *Store) Deselect() {
	s.selected = ""
}

// Selected returns the selected node, if any.
func (s *Store) Selected() (models.NodeInstance, bool) {
	if s.selected == "" {
		return models.NodeInstance{}, false
	}

	return s.Get(s.selected)
}

// Delete removes the node with the given id. Nodes whose nextNodes reference
// it are left untouched.
func (s *Store) Delete(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}

	s.nodes = slices.Delete(s.nodes, i, i+1)

	if s.selected == id {
		s.selected = ""
	}

	return true
}

// Move sets the position of a node.
func (s *Store) Move(id string, position models.Position) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}

	s.nodes[i].Position = position

	return true
}

// Replace seeds the store with a loaded node list and clears the selection.
func (s *Store) Replace(nodes []models.NodeInstance) {
	s.nodes = models.CloneNodes(nodes)
	if s.nodes == nil {
		s.nodes = []models.NodeInstance{}
	}

	s.selected = ""
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.nodes, func(n models.NodeInstance) bool {
		return n.ID == id
	})
}

package scene

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Line nodes are named after their body behind one of these prefixes.
const (
	OrbitLinePrefix      = "orbit-"
	TrailLinePrefix      = "trail-"
	PredictionLinePrefix = "prediction-"
)

// IsLineID reports whether id lies in the line node namespace. Body ids must
// not, or a line and a body would share a registry slot.
func IsLineID(id string) bool {
	return strings.HasPrefix(id, OrbitLinePrefix) ||
		strings.HasPrefix(id, TrailLinePrefix) ||
		strings.HasPrefix(id, PredictionLinePrefix)
}

// Object is anything placed in the scene.
type Object interface {
	ObjectID() string
	WorldPosition() r3.Vec
}

// Registry is the scene-object registry the visualisation managers write to.
type Registry interface {
	AddRawObjectToScene(obj Object)
	RemoveRawObjectFromScene(obj Object)
	GetObject(id string) (Object, bool)
}

// BodyNode is the scene object of a celestial body.
type BodyNode struct {
	ID       string
	Position r3.Vec
	Radius   float64
}

func (n *BodyNode) ObjectID() string      { return n.ID }
func (n *BodyNode) WorldPosition() r3.Vec { return n.Position }

// Graph is an in-memory Registry. Frame loop goroutine only.
type Graph struct {
	objects map[string]Object
}

func NewGraph() *Graph {
	return &Graph{objects: make(map[string]Object, 64)}
}

// AddRawObjectToScene inserts or replaces obj under its id.
func (g *Graph) AddRawObjectToScene(obj Object) {
	if obj == nil {
		return
	}
	g.objects[obj.ObjectID()] = obj
}

// RemoveRawObjectFromScene removes obj if it is the object registered under its id.
func (g *Graph) RemoveRawObjectFromScene(obj Object) {
	if obj == nil {
		return
	}
	if cur, ok := g.objects[obj.ObjectID()]; ok && cur == obj {
		delete(g.objects, obj.ObjectID())
	}
}

func (g *Graph) GetObject(id string) (Object, bool) {
	obj, ok := g.objects[id]
	return obj, ok
}

// Len returns the number of objects in the scene.
func (g *Graph) Len() int {
	return len(g.objects)
}

// Each visits objects in id order.
func (g *Graph) Each(fn func(Object)) {
	ids := make([]string, 0, len(g.objects))
	for id := range g.objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fn(g.objects[id])
	}
}

// SyncBody creates or moves the node for a body.
func (g *Graph) SyncBody(id string, pos r3.Vec, radius float64) *BodyNode {
	if obj, ok := g.objects[id]; ok {
		if n, ok := obj.(*BodyNode); ok {
			n.Position = pos
			n.Radius = radius
			return n
		}
	}
	n := &BodyNode{ID: id, Position: pos, Radius: radius}
	g.objects[id] = n
	return n
}

// PruneBodies removes body nodes whose id is not in keep.
func (g *Graph) PruneBodies(keep map[string]struct{}) {
	for id, obj := range g.objects {
		if _, isBody := obj.(*BodyNode); !isBody {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(g.objects, id)
		}
	}
}

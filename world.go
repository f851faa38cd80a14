package main

import "sort"

// World is the live simulation set. It is not safe for concurrent use;
// the owning Game serializes access.
type World struct {
	entities map[string]*Entity
	nextSeq  uint64
}

// NewWorld creates an empty World
func NewWorld() *World {
	return &World{entities: make(map[string]*Entity)}
}

// Add registers e, assigning an ID if it has none
func (w *World) Add(e *Entity) {
	if e.ID == "" {
		e.ID = GenerateID(4)
	}
	w.nextSeq++
	e.seq = w.nextSeq
	w.entities[e.ID] = e
}

// Remove deletes e and reports whether it was live
func (w *World) Remove(e *Entity) bool {
	if e == nil {
		return false
	}
	cur, ok := w.entities[e.ID]
	if !ok || cur != e {
		return false
	}
	delete(w.entities, e.ID)
	return true
}

// Contains reports whether e is live
func (w *World) Contains(e *Entity) bool {
	if e == nil {
		return false
	}
	cur, ok := w.entities[e.ID]
	return ok && cur == e
}

// Count returns how many live entities have the given kind
func (w *World) Count(kind EntityKind) int {
	n := 0
	for _, e := range w.entities {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Snapshot returns the live entities in insertion order. The slice is a
// copy, so callers may add or remove entities while iterating it.
func (w *World) Snapshot() []*Entity {
	list := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
	return list
}

// Clear drops every entity
func (w *World) Clear() {
	w.entities = make(map[string]*Entity)
}

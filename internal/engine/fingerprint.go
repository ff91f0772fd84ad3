package engine

import (
	"strconv"
	"strings"

	"github.com/lorehaven/recap/internal/util"
)

// Memory is one record of an entity's memory list. The engine only cares
// about its identity and content; everything else stays with the host.
type Memory struct {
	ID      string
	Content string
}

// identity returns the stable identity of a memory: its id when present,
// otherwise a hash of its content.
func (m Memory) identity() string {
	if m.ID != "" {
		return m.ID
	}
	return util.Hash(m.Content)
}

// ComputeFingerprint derives the stable cache key for an entity and its
// ordered memory list. The key is sensitive to order, count and memory
// identity; identical inputs always produce identical keys.
func ComputeFingerprint(entityID string, memories []Memory) string {
	ids := make([]string, len(memories))
	for i, m := range memories {
		ids[i] = m.identity()
	}
	return entityID + "_" + strconv.Itoa(len(memories)) + "_" + util.Hash(strings.Join(ids, "|"))
}

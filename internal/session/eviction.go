package session

import (
	"sort"
	"strings"

	"github.com/pedro664/TimTimBebidas-sub000/internal/kv"
)

// EvictionPolicy selects which stored keys to drop when a write hits the
// backend's quota. Implementations must never select keys belonging to
// the current session.
type EvictionPolicy interface {
	Candidates(entries []kv.Entry, currentSession string) []string
}

// OldestFirst evicts up to Max entries of the listed entity kinds that
// belong to other sessions, oldest first.
type OldestFirst struct {
	Kinds []string
	Max   int
}

// DefaultPolicy evicts stale carts and quotes left behind by previous
// sessions, a handful at a time.
func DefaultPolicy() OldestFirst {
	return OldestFirst{Kinds: EntityKinds(), Max: 5}
}

func (p OldestFirst) Candidates(entries []kv.Entry, currentSession string) []string {
	var candidates []kv.Entry
	for _, entry := range entries {
		kind, sid, ok := splitKey(entry.Key)
		if !ok || sid == currentSession {
			continue
		}
		for _, k := range p.Kinds {
			if kind == k {
				candidates = append(candidates, entry)
				break
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Age > candidates[j].Age
	})

	max := p.Max
	if max <= 0 || max > len(candidates) {
		max = len(candidates)
	}
	keys := make([]string, 0, max)
	for _, entry := range candidates[:max] {
		keys = append(keys, entry.Key)
	}
	return keys
}

// splitKey decomposes "<entity>-<sessionID>" keys. Entity names may
// themselves contain dashes, so the session id is taken from the end.
func splitKey(key string) (kind, sessionID string, ok bool) {
	if len(key) <= sessionIDLength+1 {
		return "", "", false
	}
	cut := len(key) - sessionIDLength - 1
	if key[cut] != '-' {
		return "", "", false
	}
	kind, sessionID = key[:cut], key[cut+1:]
	// UUID shape: 36 chars with dashes at fixed positions.
	if strings.Count(sessionID, "-") != 4 {
		return "", "", false
	}
	return kind, sessionID, true
}

package gateway

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/beacon-gw/beacon/internal/cache"
	"github.com/beacon-gw/beacon/internal/catalog"
	"github.com/beacon-gw/beacon/pkg/api"
)

// Route is the routing decision for one request.
type Route struct {
	Candidates []catalog.Descriptor

	// CacheEligible is false for history-bearing requests; they are
	// context-dependent and must never be cached.
	CacheEligible bool
	CacheKey      string
}

// Router maps a task type to its ordered candidate list. Each task type may
// carry its own preference order over the shared provider pool; providers
// not named in the preference list follow in catalog priority order.
type Router struct {
	catalog *catalog.Catalog
	prefs   map[api.TaskType][]string
}

func NewRouter(cat *catalog.Catalog, routes map[string][]string) *Router {
	prefs := make(map[api.TaskType][]string, len(routes))
	for task, keys := range routes {
		prefs[api.TaskType(task)] = keys
	}
	return &Router{catalog: cat, prefs: prefs}
}

// Route computes the candidate list and cache decision for a request.
func (r *Router) Route(req api.TaskRequest) Route {
	candidates := r.reorder(req.Type, r.catalog.ListCandidates(req.Type))

	route := Route{Candidates: candidates}
	if len(req.History) > 0 {
		return route
	}

	route.CacheEligible = true
	text := req.Text
	if len(req.Binary) > 0 {
		// binary payloads are part of the input; hash them into the text
		// component so two images with the same prompt do not collide
		sum := sha256.Sum256(req.Binary)
		text += " " + hex.EncodeToString(sum[:])
	}
	route.CacheKey = cache.Fingerprint(req.Type, text, req.Preferred)
	return route
}

// reorder applies the task's preference overlay: listed providers first, in
// list order, then the remainder in catalog priority order.
func (r *Router) reorder(task api.TaskType, candidates []catalog.Descriptor) []catalog.Descriptor {
	prefs, ok := r.prefs[task]
	if !ok || len(prefs) == 0 {
		return candidates
	}

	index := make(map[string]int, len(candidates))
	for i, d := range candidates {
		index[d.Key] = i
	}

	out := make([]catalog.Descriptor, 0, len(candidates))
	used := make(map[string]bool, len(candidates))
	for _, key := range prefs {
		if i, ok := index[key]; ok && !used[key] {
			out = append(out, candidates[i])
			used[key] = true
		}
	}
	for _, d := range candidates {
		if !used[d.Key] {
			out = append(out, d)
		}
	}
	return out
}

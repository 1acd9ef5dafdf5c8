// Package index is the thread-safe vector search index: an ordered sequence
// of skills paired one-to-one with their L2-normalized description
// embeddings, queried with scope-based access control.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/docker/agent-skills/pkg/errs"
	"github.com/docker/agent-skills/pkg/skill"
)

// Embedder turns text into L2-normalized embedding rows. Satisfied by
// *embedding.Provider; kept as an interface here so the index can be tested
// without loading a real model.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Result is one ranked search hit.
type Result struct {
	Skill          skill.Skill
	RelevanceScore float32
}

// ListEntry is the no-filter snapshot returned by List.
type ListEntry struct {
	Name          string
	Description   string
	Source        string
	Scope         skill.Scope
	DocumentCount int
}

// Index holds the skill sequence and its parallel embedding matrix behind a
// single read-write lock. Mutations (IndexSkills/AddSkills/RemoveBySource)
// take the write lock; Search/List/Get take the read lock. Query latency on
// a loaded index is a handful of dot products, so coarse locking is fine.
type Index struct {
	mu         sync.RWMutex
	skills     []skill.Skill
	embeddings [][]float32
	embedder   Embedder
}

// New creates an empty Index backed by embedder.
func New(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// IndexSkills performs a full replacement: the prior state is discarded, the
// new skills' descriptions are embedded in a single batch, and the result is
// installed. embed-failed leaves the prior state untouched (all-or-nothing).
func (idx *Index) IndexSkills(ctx context.Context, skills []skill.Skill) error {
	vecs, err := idx.embedAll(ctx, skills)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.skills = append([]skill.Skill(nil), skills...)
	idx.embeddings = vecs
	return nil
}

// AddSkills embeds and appends new skills, replacing any existing skill of
// the same name (removal precedes addition, so a replaced name is never
// present twice). embed-failed leaves the prior state untouched.
func (idx *Index) AddSkills(ctx context.Context, skills []skill.Skill) error {
	if len(skills) == 0 {
		return nil
	}

	vecs, err := idx.embedAll(ctx, skills)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i, s := range skills {
		if existing, ok := idx.findLocked(s.Name); ok {
			idx.removeAtLocked(existing)
		}
		idx.skills = append(idx.skills, s)
		idx.embeddings = append(idx.embeddings, vecs[i])
	}
	return nil
}

func (idx *Index) embedAll(ctx context.Context, skills []skill.Skill) ([][]float32, error) {
	if len(skills) == 0 {
		return [][]float32{}, nil
	}
	descriptions := make([]string, len(skills))
	for i, s := range skills {
		descriptions[i] = s.Description
	}
	vecs, err := idx.embedder.Embed(ctx, descriptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrEmbedFailed, err)
	}
	return vecs, nil
}

// RemoveBySource removes every skill whose Source field equals source,
// compacting the skill sequence and embedding matrix together. Used by
// targeted-replacement refresh.
func (idx *Index) RemoveBySource(source string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	keptSkills := idx.skills[:0:0]
	keptEmbeddings := idx.embeddings[:0:0]
	for i, s := range idx.skills {
		if s.Source == source {
			continue
		}
		keptSkills = append(keptSkills, s)
		keptEmbeddings = append(keptEmbeddings, idx.embeddings[i])
	}
	idx.skills = keptSkills
	idx.embeddings = keptEmbeddings
}

func (idx *Index) findLocked(name string) (int, bool) {
	for i, s := range idx.skills {
		if s.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (idx *Index) removeAtLocked(i int) {
	idx.skills = append(idx.skills[:i], idx.skills[i+1:]...)
	idx.embeddings = append(idx.embeddings[:i], idx.embeddings[i+1:]...)
}

// Search returns the top min(topK, |candidates|) skills visible to
// (tenantID, allowed), ranked by descending cosine similarity to query, ties
// broken by ascending original insertion index.
func (idx *Index) Search(ctx context.Context, query string, topK int, tenantID string, allowed []string) ([]Result, error) {
	if topK <= 0 {
		return nil, nil
	}

	skillsSnapshot, embeddingsSnapshot := idx.snapshot()

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = struct{}{}
	}

	var candidates []int
	for i, s := range skillsSnapshot {
		if s.Visible(tenantID, allowedSet) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	qvecs, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrEmbedFailed, err)
	}
	q := l2Normalize(qvecs[0])

	type scored struct {
		pos   int
		score float32
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{pos: c, score: dot(q, embeddingsSnapshot[c])}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].pos < ranked[j].pos
	})

	if topK > len(ranked) {
		topK = len(ranked)
	}

	results := make([]Result, topK)
	for i := 0; i < topK; i++ {
		results[i] = Result{Skill: skillsSnapshot[ranked[i].pos], RelevanceScore: ranked[i].score}
	}
	return results, nil
}

// Get returns the skill with an exact name match, if indexed.
func (idx *Index) Get(name string) (skill.Skill, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for _, s := range idx.skills {
		if s.Name == name {
			return s, true
		}
	}
	return skill.Skill{}, false
}

// List returns a snapshot of every indexed skill, unfiltered.
func (idx *Index) List() []ListEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entries := make([]ListEntry, len(idx.skills))
	for i, s := range idx.skills {
		entries[i] = ListEntry{
			Name:          s.Name,
			Description:   s.Description,
			Source:        s.Source,
			Scope:         s.Scope,
			DocumentCount: len(s.Documents),
		}
	}
	return entries
}

// Len returns the number of indexed skills.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.skills)
}

func (idx *Index) snapshot() ([]skill.Skill, [][]float32) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	skills := append([]skill.Skill(nil), idx.skills...)
	embeddings := append([][]float32(nil), idx.embeddings...)
	return skills, embeddings
}

func dot(a, b []float32) float32 {
	var sum float32
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func l2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := float32(math.Sqrt(sumSq))
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

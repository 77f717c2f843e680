package suggest

import (
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/laya1n/Haseef-sub000/internal/domain/search/distance"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/normalize"
)

// Config holds ranking quotas and the typo-correction floor.
type Config struct {
	Limit               int // default result size
	PrefixQuota         int // max prefix matches per query
	SubstringQuota      int // max substring-only matches per query
	MinCorrectionLength int // shortest query, in runes, that DidYouMean corrects
}

// DefaultConfig returns the dashboard's ranking quotas.
func DefaultConfig() Config {
	return Config{
		Limit:               8,
		PrefixQuota:         6,
		SubstringQuota:      4,
		MinCorrectionLength: distance.DefaultMinQueryLength,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Limit <= 0 {
		c.Limit = d.Limit
	}
	if c.PrefixQuota <= 0 {
		c.PrefixQuota = d.PrefixQuota
	}
	if c.SubstringQuota < 0 {
		c.SubstringQuota = d.SubstringQuota
	}
	if c.MinCorrectionLength <= 0 {
		c.MinCorrectionLength = d.MinCorrectionLength
	}
	return c
}

// Index ranks a fixed candidate set. It is immutable after construction
// and safe for concurrent use.
type Index struct {
	cfg        Config
	candidates []Candidate
	keys       []string // normalized labels, parallel to candidates
	trie       *patricia.Trie
}

// NewIndex indexes candidates in the given order.
func NewIndex(candidates []Candidate, cfg Config) *Index {
	idx := &Index{
		cfg:        cfg.withDefaults(),
		candidates: slices.Clone(candidates),
		keys:       make([]string, len(candidates)),
		trie:       patricia.NewTrie(),
	}
	for i, c := range idx.candidates {
		key := normalize.Normalize(c.Label)
		idx.keys[i] = key
		if key == "" {
			continue
		}
		p := patricia.Prefix(key)
		if item := idx.trie.Get(p); item != nil {
			idx.trie.Set(p, append(item.([]int), i))
			continue
		}
		idx.trie.Insert(p, []int{i})
	}
	return idx
}

// Len returns the number of indexed candidates.
func (idx *Index) Len() int { return len(idx.candidates) }

// Candidates returns a copy of the indexed candidates in index order.
func (idx *Index) Candidates() []Candidate { return slices.Clone(idx.candidates) }

// Suggest returns prefix matches followed by substring-only matches of query.
// An empty query returns the first limit candidates. limit <= 0 uses the configured default.
func (idx *Index) Suggest(query string, limit int) []Candidate {
	if limit <= 0 {
		limit = idx.cfg.Limit
	}
	q := normalize.Normalize(query)
	if q == "" {
		n := min(limit, len(idx.candidates))
		return slices.Clone(idx.candidates[:n])
	}

	prefix := idx.prefixPositions(q)
	out := make([]Candidate, 0, min(limit, idx.cfg.PrefixQuota+idx.cfg.SubstringQuota))
	for _, i := range prefix[:min(len(prefix), idx.cfg.PrefixQuota)] {
		out = append(out, idx.candidates[i])
	}

	substr := 0
	for i, key := range idx.keys {
		if substr >= idx.cfg.SubstringQuota {
			break
		}
		if strings.HasPrefix(key, q) || !strings.Contains(key, q) {
			continue
		}
		out = append(out, idx.candidates[i])
		substr++
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// prefixPositions returns candidate positions whose key starts with q, ascending.
func (idx *Index) prefixPositions(q string) []int {
	var pos []int
	_ = idx.trie.VisitSubtree(patricia.Prefix(q), func(_ patricia.Prefix, item patricia.Item) error {
		pos = append(pos, item.([]int)...)
		return nil
	})
	slices.Sort(pos)
	return pos
}

// Eligible reports whether query is long enough for DidYouMean to correct.
func (idx *Index) Eligible(query string) bool {
	return distance.Eligible(query, idx.cfg.MinCorrectionLength)
}

// DidYouMean returns the closest candidate to query when it is a plausible typo:
// query of at least Config.MinCorrectionLength runes, distance above zero and within
// distance.Threshold. Ties resolve to the earliest candidate.
func (idx *Index) DidYouMean(query string) (Candidate, bool) {
	q := normalize.Normalize(query)
	n := len([]rune(q))
	if n < idx.cfg.MinCorrectionLength || len(idx.candidates) == 0 {
		return Candidate{}, false
	}

	best, bestDist := -1, 0
	for i, key := range idx.keys {
		d := levenshtein.ComputeDistance(q, key)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}
	if !distance.Accept(n, bestDist) {
		return Candidate{}, false
	}
	return idx.candidates[best], true
}

// Suggest ranks candidates against query with the default quotas.
func Suggest(candidates []Candidate, query string, limit int) []Candidate {
	return NewIndex(candidates, DefaultConfig()).Suggest(query, limit)
}

package index

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/MrSnakeDoc/atlas/internal/domain"
)

const (
	// Scoring weights
	scoreExactMatch     = 100.0
	scorePrefixMatch    = 75.0
	scoreSubstringMatch = 50.0
	scoreFuzzyMatch     = 25.0

	// Position bonus (earlier fragment is better)
	scorePositionBonus = 10.0

	// Whole query equals the service id
	scoreExactIDBonus = 200.0

	// Fuzzy matching is noise below this many characters
	minFuzzyLen = 3
)

// Hit is a service matching a search query.
type Hit struct {
	Service domain.CompiledService
	Score   float64
}

// Search ranks the services of the current catalog against query.
// See Search.
func (idx *CatalogIndex) Search(query string, limit int) []Hit {
	return Search(idx.Current(), query, limit)
}

// Search ranks the services of cat against a free-text query matched on the
// service id, provider name and hostname. Every query term must match
// something. Results are best score first, ties in catalog order; limit <= 0
// returns every hit.
func Search(cat *domain.Catalog, query string, limit int) []Hit {
	terms := queryTerms(query)
	if cat == nil || len(terms) == 0 {
		return nil
	}

	var hits []Hit
	for _, s := range cat.Services {
		if score := scoreService(terms, s); score > 0 {
			hits = append(hits, Hit{Service: s, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// queryTerms lowercases query and splits it on anything that is not a letter
// or digit, so "sapos-bw", "sapos_bw" and "sapos bw" are the same query.
func queryTerms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func scoreService(terms []string, s domain.CompiledService) float64 {
	if strings.Join(terms, "_") == s.ID {
		return scoreExactMatch + scoreExactIDBonus
	}

	fields := [][]string{
		queryTerms(s.ID),
		queryTerms(s.Provider),
		queryTerms(s.Record.HostnameString()),
	}

	var total float64
	for _, term := range terms {
		best := 0.0
		for _, frags := range fields {
			for pos, frag := range frags {
				best = math.Max(best, scoreFragment(term, frag, pos))
			}
		}
		if best == 0 {
			return 0
		}
		total += best
	}
	return total
}

// scoreFragment scores a single query term against one fragment
func scoreFragment(term, frag string, position int) float64 {
	if term == "" || frag == "" {
		return 0.0
	}

	if term == frag {
		return scoreExactMatch + positionBonus(position)
	}

	if strings.HasPrefix(frag, term) {
		return scorePrefixMatch + positionBonus(position)
	}

	// Earlier substring matches get higher score
	if i := strings.Index(frag, term); i >= 0 {
		return scoreSubstringMatch + scorePositionBonus*(1.0-float64(i)/float64(len(frag)))
	}

	if len(term) >= minFuzzyLen {
		if ratio := subsequenceRatio(term, frag); ratio > 0.5 {
			return scoreFuzzyMatch * ratio
		}
	}

	return 0.0
}

func positionBonus(position int) float64 {
	return scorePositionBonus * math.Exp(-float64(position)*0.3)
}

// subsequenceRatio is len(a)/len(b) when the runes of a appear in b in
// order ("trfk" in "traefik"), and 0 otherwise.
func subsequenceRatio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 || len(ar) > len(br) {
		return 0.0
	}

	i := 0
	for _, c := range br {
		if i < len(ar) && ar[i] == c {
			i++
		}
	}
	if i < len(ar) {
		return 0.0
	}
	return float64(len(ar)) / float64(len(br))
}

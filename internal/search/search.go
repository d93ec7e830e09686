// Package search finds students by approximate name, for picking a student
// in move-in and move-out forms.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/fiam/gounidecode/unidecode"
	"github.com/schollz/closestmatch"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/model"
	"dormitory-backend/internal/store"
)

// MinScore is the lowest similarity that still counts as a match.
const MinScore = 0.6

// Match is a student with its similarity to the query, in 0..1.
type Match struct {
	Student model.Student `json:"student"`
	Score   float64       `json:"score"`
}

// Result holds ranked matches and the group label closest to the query.
type Result struct {
	Matches []Match `json:"matches"`
	Group   string  `json:"group,omitempty"`
}

// Searcher ranks students against free-text queries.
type Searcher struct {
	store store.Store
}

// New creates a Searcher.
func New(st store.Store) *Searcher {
	return &Searcher{store: st}
}

// Students returns up to limit students whose name resembles query, best
// first. A non-positive limit means no limit.
func (s *Searcher) Students(ctx context.Context, query string, limit int) (Result, error) {
	q := normalize(query)
	if q == "" {
		return Result{}, apperr.NewValidation("q", "пустой поисковый запрос")
	}

	students, err := s.store.ListStudents(ctx, store.StudentFilter{})
	if err != nil {
		return Result{}, apperr.Logged("search students", err)
	}

	res := Result{Matches: rank(q, students), Group: closestGroup(q, students)}
	if limit > 0 && len(res.Matches) > limit {
		res.Matches = res.Matches[:limit]
	}
	return res, nil
}

func normalize(input string) string {
	input = strings.TrimSpace(input)
	return strings.Join(strings.Fields(strings.ToLower(unidecode.Unidecode(input))), " ")
}

func rank(q string, students []model.Student) []Match {
	matches := make([]Match, 0)
	for _, st := range students {
		if score := scoreName(q, st.FullName()); score >= MinScore {
			matches = append(matches, Match{Student: st, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Student.Surname != b.Student.Surname {
			return a.Student.Surname < b.Student.Surname
		}
		return a.Student.ID < b.Student.ID
	})
	return matches
}

// scoreName compares q with the whole name and with each of its words and
// keeps the best result. A substring of the name scores 1.
func scoreName(q, name string) float64 {
	full := normalize(name)
	if strings.Contains(full, q) {
		return 1
	}
	best := similarity(q, full)
	for _, word := range strings.Fields(full) {
		if s := similarity(q, word); s > best {
			best = s
		}
	}
	return best
}

func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	distance := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1
	}
	s := 1 - float64(distance)/float64(maxLen)
	if s < 0 {
		return 0
	}
	return s
}

// closestGroup suggests the existing group label nearest to q.
func closestGroup(q string, students []model.Student) string {
	labels := make(map[string]string)
	keys := make([]string, 0)
	for _, st := range students {
		key := normalize(st.Group)
		if _, seen := labels[key]; !seen && key != "" {
			labels[key] = st.Group
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	cm := closestmatch.New(keys, []int{2, 3})
	return labels[cm.Closest(q)]
}

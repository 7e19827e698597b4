package client

import (
	"sort"
	"strings"

	"github.com/mzalewski/devclock/pkg/api"
)

// Relevance weights. Name matches are exclusive (a project scores the
// best one of exact, prefix, substring); description and assignee
// matches stack on top.
const (
	scoreNameExact     = 100
	scoreNamePrefix    = 50
	scoreNameSubstring = 25
	scoreDescription   = 10
	scoreAssignee      = 15
)

// FilterAndRank returns the projects matching term, best match first.
// Matching is case-insensitive over name, description, and assigned
// username. Ties and the empty-term case fall back to newest first.
func FilterAndRank(projects []api.ProjectResponse, term string) []api.ProjectResponse {
	term = strings.ToLower(strings.TrimSpace(term))

	if term == "" {
		out := make([]api.ProjectResponse, len(projects))
		copy(out, projects)
		sort.Slice(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		return out
	}

	type ranked struct {
		project api.ProjectResponse
		score   int
	}

	matches := make([]ranked, 0, len(projects))
	for _, p := range projects {
		score := relevanceScore(p, term)
		if score == 0 {
			continue
		}
		matches = append(matches, ranked{project: p, score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].project.CreatedAt.After(matches[j].project.CreatedAt)
	})

	out := make([]api.ProjectResponse, len(matches))
	for i, m := range matches {
		out[i] = m.project
	}
	return out
}

func relevanceScore(p api.ProjectResponse, term string) int {
	name := strings.ToLower(p.Name)
	score := 0

	switch {
	case name == term:
		score += scoreNameExact
	case strings.HasPrefix(name, term):
		score += scoreNamePrefix
	case strings.Contains(name, term):
		score += scoreNameSubstring
	}

	if strings.Contains(strings.ToLower(p.Description), term) {
		score += scoreDescription
	}
	if p.AssignedUserUsername != "" && strings.Contains(strings.ToLower(p.AssignedUserUsername), term) {
		score += scoreAssignee
	}

	return score
}

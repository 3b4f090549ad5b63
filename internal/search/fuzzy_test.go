package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex() []Entry {
	return []Entry{
		{ID: 1, Title: "Half-Life 2"},
		{ID: 2, Title: "Portal 2"},
		{ID: 3, Title: "Left 4 Dead"},
	}
}

func TestFindMatchesRanksSubstringHits(t *testing.T) {
	matches, fellBack := FindMatches("half life", testIndex())

	require.NotEmpty(t, matches)
	assert.False(t, fellBack)
	assert.Equal(t, uint(1), matches[0].ID)
}

func TestFindMatchesExactTitleRanksFirst(t *testing.T) {
	entries := []Entry{
		{ID: 1, Title: "portal 2"},
		{ID: 2, Title: "Portal 2"},
		{ID: 3, Title: "Portal"},
	}

	matches, fellBack := FindMatches("Portal 2", entries)

	require.NotEmpty(t, matches)
	assert.False(t, fellBack)
	assert.Equal(t, uint(2), matches[0].ID)
	assert.Equal(t, "Portal 2", matches[0].Title)
}

func TestFindMatchesFallbackIsBoundedAndNonEmpty(t *testing.T) {
	entries := make([]Entry, 0, 20)
	for i := 0; i < 20; i++ {
		entries = append(entries, Entry{ID: uint(i + 1), Title: "Game Title"})
	}

	matches, fellBack := FindMatches("zzzzzz", entries)

	assert.True(t, fellBack)
	require.NotEmpty(t, matches)
	assert.LessOrEqual(t, len(matches), fallbackLimit)
}

func TestFindMatchesDeterministic(t *testing.T) {
	entries := []Entry{
		{ID: 1, Title: "The Witcher 3"},
		{ID: 2, Title: "The Witcher 2"},
		{ID: 3, Title: "The Witcher"},
		{ID: 4, Title: "Witchfire"},
	}

	first, _ := FindMatches("witcher", entries)
	for i := 0; i < 10; i++ {
		again, _ := FindMatches("witcher", entries)
		require.Equal(t, first, again)
	}
}

func TestFindMatchesTiesKeepIndexOrder(t *testing.T) {
	entries := []Entry{
		{ID: 7, Title: "Doom"},
		{ID: 8, Title: "Doom"},
	}

	matches, _ := FindMatches("doom", entries)

	require.Len(t, matches, 2)
	assert.Equal(t, uint(7), matches[0].ID)
	assert.Equal(t, uint(8), matches[1].ID)
}

func TestFindMatchesIgnoresWordOrderInQuery(t *testing.T) {
	matches, fellBack := FindMatches("dead left", testIndex())

	require.NotEmpty(t, matches)
	assert.False(t, fellBack)
	assert.Equal(t, uint(3), matches[0].ID)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		a, b   string
		expect func(t *testing.T, score float64)
	}{
		{
			name: "identical strings",
			a:    "Half-Life 2", b: "Half-Life 2",
			expect: func(t *testing.T, score float64) {
				assert.Equal(t, float64(100), score)
			},
		},
		{
			name: "case difference only",
			a:    "half-life 2", b: "Half-Life 2",
			expect: func(t *testing.T, score float64) {
				assert.Equal(t, float64(100), score)
			},
		},
		{
			name: "reordered tokens stay high",
			a:    "dead left 4", b: "Left 4 Dead",
			expect: func(t *testing.T, score float64) {
				assert.Greater(t, score, 90.0)
			},
		},
		{
			name: "unrelated strings stay low",
			a:    "stardew valley", b: "Quake Champions",
			expect: func(t *testing.T, score float64) {
				assert.Less(t, score, 50.0)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.expect(t, Score(tt.a, tt.b))
		})
	}
}

func TestScoreOrdersCloserTitlesHigher(t *testing.T) {
	close := Score("half life", "Half-Life 2")
	far := Score("half life", "Left 4 Dead")
	assert.Greater(t, close, far)
}

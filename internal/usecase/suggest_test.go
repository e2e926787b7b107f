package usecase

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSuggester_Summaries(t *testing.T) {
	s := NewLocalSuggester(rand.New(rand.NewSource(1)))

	got, err := s.Summaries(context.Background(), "Engenharia de Dados")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, line := range got {
		assert.Contains(t, line, "Engenharia de Dados")
	}

	got, err = s.Summaries(context.Background(), "  ")
	require.NoError(t, err)
	assert.Contains(t, got[0], "sua área")
	assert.Contains(t, got[1], "gestão")
	assert.Contains(t, got[2], "tecnologia")
}

func TestLocalSuggester_Skills(t *testing.T) {
	s := NewLocalSuggester(rand.New(rand.NewSource(7)))
	pool := map[string]bool{}
	for _, k := range append(append([]string{}, techSkills...), softSkills...) {
		pool[k] = true
	}

	got, err := s.Skills(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, SkillPickCount)
	seen := map[string]bool{}
	for _, k := range got {
		assert.True(t, pool[k], "%s from the pool", k)
		assert.False(t, seen[k], "%s repeated", k)
		seen[k] = true
	}
}

type failingSuggester struct{}

func (failingSuggester) Summaries(context.Context, string) ([]string, error) {
	return nil, errors.New("down")
}

func (failingSuggester) Skills(context.Context, string) ([]string, error) {
	return nil, errors.New("down")
}

func TestFallbackSuggester(t *testing.T) {
	f := &FallbackSuggester{Primary: failingSuggester{}, Fallback: NewLocalSuggester(nil)}

	sums, err := f.Summaries(context.Background(), "Go")
	require.NoError(t, err)
	assert.Len(t, sums, 3)

	skills, err := f.Skills(context.Background(), "Go")
	require.NoError(t, err)
	assert.Len(t, skills, SkillPickCount)
}

package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Suggester proposes summary sentences and skills for a professional title.
type Suggester interface {
	Summaries(ctx context.Context, keyword string) ([]string, error)
	Skills(ctx context.Context, keyword string) ([]string, error)
}

var (
	techSkills = []string{"JavaScript", "React", "Node.js", "TypeScript", "Python", "AWS", "Docker"}
	softSkills = []string{"Liderança", "Comunicação", "Resolução de Problemas", "Trabalho em Equipe", "Gestão de Tempo"}
)

// SkillPickCount is how many skills a suggestion returns.
const SkillPickCount = 5

// LocalSuggester fills fixed sentence templates and shuffles a fixed skill pool.
type LocalSuggester struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewLocalSuggester(rnd *rand.Rand) *LocalSuggester {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &LocalSuggester{rnd: rnd}
}

func orDefault(keyword, def string) string {
	if k := strings.TrimSpace(keyword); k != "" {
		return k
	}
	return def
}

func (s *LocalSuggester) Summaries(_ context.Context, keyword string) ([]string, error) {
	return []string{
		fmt.Sprintf("Profissional altamente motivado com experiência em %s, focado em entregar resultados de alta qualidade e impulsionar o crescimento da empresa.", orDefault(keyword, "sua área")),
		fmt.Sprintf("Especialista em %s com histórico comprovado de liderança e inovação. Habilidade em resolver problemas complexos e trabalhar em equipe.", orDefault(keyword, "gestão")),
		fmt.Sprintf("Desenvolvedor apaixonado por %s com forte base técnica e desejo constante de aprendizado.", orDefault(keyword, "tecnologia")),
	}, nil
}

func (s *LocalSuggester) Skills(_ context.Context, _ string) ([]string, error) {
	pool := make([]string, 0, len(techSkills)+len(softSkills))
	pool = append(pool, techSkills...)
	pool = append(pool, softSkills...)
	s.mu.Lock()
	s.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	s.mu.Unlock()
	return pool[:SkillPickCount], nil
}

// FallbackSuggester asks Primary first and answers from Fallback when it fails.
type FallbackSuggester struct {
	Primary  Suggester
	Fallback Suggester
	Logger   *zap.Logger
}

func (f *FallbackSuggester) Summaries(ctx context.Context, keyword string) ([]string, error) {
	out, err := f.Primary.Summaries(ctx, keyword)
	if err == nil && len(out) > 0 {
		return out, nil
	}
	f.logFallback("summaries", err)
	return f.Fallback.Summaries(ctx, keyword)
}

func (f *FallbackSuggester) Skills(ctx context.Context, keyword string) ([]string, error) {
	out, err := f.Primary.Skills(ctx, keyword)
	if err == nil && len(out) > 0 {
		return out, nil
	}
	f.logFallback("skills", err)
	return f.Fallback.Skills(ctx, keyword)
}

func (f *FallbackSuggester) logFallback(kind string, err error) {
	if f.Logger == nil {
		return
	}
	f.Logger.Warn("remote suggestions unavailable, using local", zap.String("kind", kind), zap.Error(err))
}

package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/lotto-engine/internal/engine"
	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/pacer"
	"github.com/rickgao/lotto-engine/internal/pattern"
	"github.com/rickgao/lotto-engine/internal/store/memory"
	"github.com/rickgao/lotto-engine/internal/strategy"
)

type fixedData bool

func (f fixedData) HasData(context.Context) (bool, error) { return bool(f), nil }

type countingPacer struct {
	calls int
	err   error
}

func (p *countingPacer) Pause(context.Context) error {
	p.calls++
	return p.err
}

func newTestService(t *testing.T, has bool, p Pauser) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	eng := engine.New(pattern.NewCache(st.Draws(), nil))
	svc := New(Deps{
		Data:    fixedData(has),
		Metrics: st.Metrics(),
		Results: st.Results(),
		Engine:  eng,
		Pacer:   p,
	}, nil)
	return svc, st
}

func seedFrequencies(t *testing.T, st *memory.Store, window int) {
	t.Helper()
	ms := make([]model.NumberMetric, 0, model.MaxNumber)
	for n := model.MinNumber; n <= model.MaxNumber; n++ {
		ms = append(ms, model.NumberMetric{Window: window, Number: n, Frequency: n})
	}
	require.NoError(t, st.Metrics().ReplaceWindow(context.Background(), window, ms))
}

func TestRecommendWithoutHistory(t *testing.T) {
	svc, _ := newTestService(t, false, nil)

	res, err := svc.Recommend(context.Background(), Request{
		Strategy: model.StrategyBalanced,
		Count:    5,
	})
	require.NoError(t, err)
	assert.False(t, res.HasData)
	assert.Equal(t, model.DefaultWindow, res.Window)
	assert.NotEmpty(t, res.Sets)
	for _, s := range res.Sets {
		assert.Empty(t, s.ID, "unsaved sets carry no id")
	}
}

func TestRecommendUsesStoredMetrics(t *testing.T) {
	svc, st := newTestService(t, true, nil)
	seedFrequencies(t, st, 20)

	res, err := svc.Recommend(context.Background(), Request{
		Strategy: model.StrategyFrequentTop,
		Count:    1,
		Window:   20,
	})
	require.NoError(t, err)
	require.Len(t, res.Sets, 1)
	assert.Equal(t, [6]int{40, 41, 42, 43, 44, 45}, res.Sets[0].Numbers)
}

func TestRecommendPacesHeuristicStrategies(t *testing.T) {
	p := &countingPacer{}
	svc, _ := newTestService(t, false, p)
	ctx := context.Background()

	_, err := svc.Recommend(ctx, Request{Strategy: model.StrategyBalanced, Count: 1})
	require.NoError(t, err)
	assert.Zero(t, p.calls)

	_, err = svc.Recommend(ctx, Request{Strategy: model.StrategyAISimulation, Count: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)
}

func TestRecommendBusy(t *testing.T) {
	svc, _ := newTestService(t, false, &countingPacer{err: pacer.ErrBusy})
	ctx := context.Background()

	_, err := svc.Recommend(ctx, Request{Strategy: model.StrategyAIDecisionFilter, Count: 1, UserID: "user-1"})
	assert.ErrorIs(t, err, pacer.ErrBusy)

	page, err := svc.History(ctx, "user-1", 0, 0)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

type orderedGenerator struct {
	eng   Generator
	steps *[]string
}

func (g orderedGenerator) Generate(ctx context.Context, req engine.Request) (*engine.Result, error) {
	*g.steps = append(*g.steps, "generate")
	return g.eng.Generate(ctx, req)
}

type orderedPacer struct{ steps *[]string }

func (p orderedPacer) Pause(context.Context) error {
	*p.steps = append(*p.steps, "pause")
	return nil
}

func TestRecommendPausesAfterGenerating(t *testing.T) {
	st := memory.New()
	var steps []string
	svc := New(Deps{
		Data:    fixedData(false),
		Metrics: st.Metrics(),
		Results: st.Results(),
		Engine:  orderedGenerator{eng: engine.New(pattern.NewCache(st.Draws(), nil)), steps: &steps},
		Pacer:   orderedPacer{steps: &steps},
	}, nil)

	_, err := svc.Recommend(context.Background(), Request{Strategy: model.StrategyAIPatternReasoner, Count: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"generate", "pause"}, steps)
}

func TestRecommendUnknownStrategy(t *testing.T) {
	svc, _ := newTestService(t, false, nil)

	_, err := svc.Recommend(context.Background(), Request{Strategy: "NOPE", Count: 1})
	assert.ErrorIs(t, err, strategy.ErrUnknownStrategy)
}

func TestRecommendSavesAndPagesHistory(t *testing.T) {
	svc, _ := newTestService(t, false, nil)
	ctx := context.Background()

	res, err := svc.Recommend(ctx, Request{
		Strategy: model.StrategyWeightedRandom,
		Count:    3,
		UserID:   "user-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Sets)
	for _, s := range res.Sets {
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, model.StrategyWeightedRandom, s.Strategy)
	}

	page, err := svc.History(ctx, "user-1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.Size)
	assert.Equal(t, len(res.Sets), page.Total)
	assert.Len(t, page.Sets, len(res.Sets))

	empty, err := svc.History(ctx, "nobody", 1, 500)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, empty.Size)
	assert.Zero(t, empty.Total)
	assert.NotNil(t, empty.Sets)
}

package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/lotto-engine/internal/config"
	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/recommend"
	"github.com/rickgao/lotto-engine/internal/store/memory"
)

type noSource struct{}

func (noSource) FetchDraw(context.Context, int) (model.Draw, error) {
	return model.Draw{}, context.Canceled
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "draw_no", 3)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "json output expected: %s", out)
	assert.Contains(t, out, `"draw_no":3`)

	_, err = NewLogger(config.LoggingConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
	_, err = NewLogger(config.LoggingConfig{Level: "info", Format: "xml"}, &buf)
	assert.Error(t, err)
}

func TestAssembleAndRecommend(t *testing.T) {
	cfg := config.Default()
	cfg.Server.AdminKeyID = "admin"
	cfg.Server.AdminSecret = "0123456789abcdef"
	a := Assemble(cfg, memory.New(), noSource{}, nil)

	res, err := a.Recommend.Recommend(context.Background(), recommend.Request{
		Strategy: model.StrategyBalanced,
		Count:    2,
	})
	require.NoError(t, err)
	assert.False(t, res.HasData)
	assert.NotEmpty(t, res.Sets)

	srv, err := a.Server()
	require.NoError(t, err)
	assert.NotNil(t, srv.Handler())
	assert.NoError(t, a.Close())
}

func TestServerRejectsShortSecret(t *testing.T) {
	cfg := config.Default()
	cfg.Server.AdminKeyID = "admin"
	cfg.Server.AdminSecret = "short"
	a := Assemble(cfg, memory.New(), noSource{}, nil)

	_, err := a.Server()
	assert.Error(t, err)
}

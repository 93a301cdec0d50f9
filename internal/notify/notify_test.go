package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorderDrain(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)
	r := NewRecorder(0)
	r.now = func() time.Time { return at }

	Success(ctx, r, "Produto adicionado ao carrinho!")
	Error(ctx, r, "Por favor, preencha todos os campos obrigatórios.")

	got := r.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, LevelSuccess, got[0].Level)
	assert.Equal(t, LevelError, got[1].Level)
	assert.Equal(t, at, got[0].At)

	assert.Empty(t, r.Drain())
	assert.NotNil(t, r.Drain())
}

func TestRecorderDropsOldest(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(2)

	Info(ctx, r, "one")
	Info(ctx, r, "two")
	Info(ctx, r, "three")

	got := r.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, "three", got[1].Message)
}

func TestLogNotifierLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewLogNotifier(zap.New(core))

	Success(context.Background(), n, "ok")
	Error(context.Background(), n, "falhou")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "falhou", entries[1].ContextMap()["message"])
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewRecorder(0), NewRecorder(0)
	Success(context.Background(), Multi{a, nil, b}, "ok")

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

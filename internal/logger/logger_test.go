package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrapKeepsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := Wrap(zap.New(core)).Named("transfer").With(zap.String("transfer_id", "t-1"))

	log.Info("transfer completed", zap.Int("quantity", 3))
	log.Debug("dropped below level")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "transfer", entries[0].LoggerName)
		ctx := entries[0].ContextMap()
		assert.Equal(t, "t-1", ctx["transfer_id"])
		assert.EqualValues(t, 3, ctx["quantity"])
	}
}

func TestNewZapLoggerFallsBackToInfoOnBadLevel(t *testing.T) {
	log := NewZapLogger(&ZapLoggerConfig{Encoding: "json", Level: "nonsense", DisableStacktrace: true})
	assert.NotNil(t, log)
	assert.NotPanics(t, func() { log.Info("hello") })
}

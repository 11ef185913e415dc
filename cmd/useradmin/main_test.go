package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/flarexio/useradmin/conf"
)

func TestNewLogger(t *testing.T) {
	assert := assert.New(t)

	log, err := newLogger(conf.Log{Env: "production", Level: "warn"})
	assert.NoError(err)
	assert.False(log.Core().Enabled(zapcore.InfoLevel))
	assert.True(log.Core().Enabled(zapcore.WarnLevel))

	log, err = newLogger(conf.Log{})
	assert.NoError(err)
	assert.True(log.Core().Enabled(zapcore.DebugLevel))

	_, err = newLogger(conf.Log{Level: "loud"})
	assert.Error(err)
}

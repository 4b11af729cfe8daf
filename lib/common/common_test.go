package common

import (
	"bytes"
	"testing"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
	assert.Error(t, InitLoggers("verbose"))
	assert.NoError(t, InitLoggers("error"))
}

func TestLineLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerFactory(&buf)("redlock")

	log.Debugf("hidden %d", 1)
	log.Infof("acquired %s", "res")
	log.Warningf("store %s down", "a")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "INFO  | redlock    | acquired res")
	assert.Contains(t, buf.String(), "WARN  | redlock    | store a down")

	buf.Reset()
	log.SetLevel(logger.ERROR)
	log.Infof("quiet")
	log.Errorf("boom")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "ERROR | redlock    | boom")

	assert.PanicsWithValue(t, "fatal 7", func() { log.Panicf("fatal %d", 7) })
	assert.Contains(t, buf.String(), "CRIT  | redlock    | fatal 7")
}

func TestClientConfig(t *testing.T) {
	conf := &ClientConfig{
		Endpoints:        []string{"redis://a:6379", "redis://b:6379", "redis://c:6379", "redis://d:6379"},
		TimeoutSecond:    5,
		Expiry:           10 * time.Second,
		ExtensionCadence: -1,
		LogLevel:         "info",
	}
	require.NoError(t, conf.Validate())
	assert.Equal(t, 3, conf.Quorum())

	dump := conf.String()
	assert.Contains(t, dump, "3 of 4")
	assert.Contains(t, dump, "disabled")
	assert.Contains(t, dump, "redis://d:6379")

	conf.Endpoints = nil
	assert.Error(t, conf.Validate())

	conf.Endpoints = []string{"redis://a:6379", " "}
	assert.Error(t, conf.Validate())

	conf.Endpoints = []string{"redis://a:6379"}
	conf.LogLevel = "loud"
	assert.Error(t, conf.Validate())
}

func TestWriteMetrics(t *testing.T) {
	RecordAcquire(ResultSuccess, time.Now().Add(-time.Millisecond))
	RecordExtend(ResultRenewed)
	RecordRelease(ResultSuccess)
	RecordJanitorRelease(false)
	RecordJanitorRelease(true)

	var buf bytes.Buffer
	WriteMetrics(&buf)
	out := buf.String()

	assert.Contains(t, out, `dlock_acquire_total{result="success"}`)
	assert.Contains(t, out, `dlock_extend_total{result="renewed"}`)
	assert.Contains(t, out, `dlock_release_total{result="success"}`)
	assert.Contains(t, out, "dlock_janitor_releases_total")
	assert.Contains(t, out, "dlock_janitor_discarded_total")
	assert.Contains(t, out, "dlock_acquire_duration_seconds")
}

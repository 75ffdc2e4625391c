package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigure(t *testing.T) {
	assert.NoError(t, Configure("debug", "json"))
	assert.Error(t, Configure("loud", "json"))
}

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"job_id": "j1"})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

package portal

import (
	"testing"

	"github.com/goliatone/go-logger/glog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerProviderFuncFallsBack(t *testing.T) {
	var nilFunc LoggerProviderFunc
	assert.IsType(t, defLogger{}, nilFunc.GetLogger("flows"))

	nilResult := LoggerProviderFunc(func(string) Logger { return nil })
	assert.IsType(t, defLogger{}, nilResult.GetLogger("flows"))

	named := map[string]*captureLogger{}
	provider := LoggerProviderFunc(func(name string) Logger {
		named[name] = &captureLogger{}
		return named[name]
	})
	lgr := provider.GetLogger("flows")
	require.NotNil(t, named["flows"])
	assert.Same(t, named["flows"], lgr)
}

func TestResolveLoggerPrecedence(t *testing.T) {
	explicit := &captureLogger{}
	fromProvider := &captureLogger{}
	provider := LoggerProviderFunc(func(string) Logger { return fromProvider })

	assert.Same(t, explicit, resolveLogger("session", explicit, provider))
	assert.Same(t, fromProvider, resolveLogger("session", nil, provider))
	assert.IsType(t, defLogger{}, resolveLogger("session", nil, nil))
}

func TestResolveLoggerWithStructuredLogger(t *testing.T) {
	base := glog.NewLogger(
		glog.WithName("portal"),
		glog.WithLevel(glog.Info),
	)
	provider := LoggerProviderFunc(func(name string) Logger {
		return base.GetLogger(name)
	})

	lgr := resolveLogger("two-factor", nil, provider)
	require.NotNil(t, lgr)
	assert.NotPanics(t, func() { lgr.Info("enrollment started", "user_id", "user-1") })
}

func TestLineFormatting(t *testing.T) {
	assert.Equal(t, "signed in\n", line("signed in\n", nil))
	assert.Equal(t, "signed in user=u1 status=302\n", line("signed in", []any{"user", "u1", "status", 302}))
	assert.Equal(t, "odd user=u1 dangling\n", line("odd", []any{"user", "u1", "dangling"}))
}

func TestFlowsUseProviderLogger(t *testing.T) {
	lgr := &captureLogger{}
	flows := NewFlows(&MockAuthClient{}, WithFlowsLoggerProvider(LoggerProviderFunc(func(name string) Logger {
		return lgr
	})))
	require.NotNil(t, flows)
	assert.Same(t, lgr, flows.logger)
}

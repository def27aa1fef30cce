package rpc

import (
	"context"
	"reflect"
	"testing"

	"github.com/procnet/inproc/common/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterName(t *testing.T) {
	t.Parallel()
	reg := NewHandlerRegistry(logging.NewLogger("test"))

	require.Error(t, reg.RegisterName("", new(testService)))
	require.Error(t, reg.RegisterName("empty", struct{}{}))

	require.NoError(t, reg.RegisterName("test", new(testService)))
	assert.Equal(t, []string{"test"}, reg.Services())

	// Registering a second receiver under the same namespace merges methods.
	require.NoError(t, reg.RegisterName("test", &slowService{}))
	assert.NotNil(t, reg.callback("test_wait"))
}

func TestSuitableCallbacks(t *testing.T) {
	t.Parallel()
	callbacks := suitableCallbacks(reflect.ValueOf(new(testService)))

	for _, name := range []string{"noArgsRets", "echo", "echoWithCtx", "block", "rets", "returnError", "countTo", "streamError"} {
		assert.Contains(t, callbacks, name)
	}

	echo := callbacks["echo"]
	assert.False(t, echo.hasCtx)
	assert.False(t, echo.isStream)
	assert.Len(t, echo.argTypes, 3)
	assert.Equal(t, -1, echo.errPos)
	assert.Equal(t, 0, echo.retPos)

	withCtx := callbacks["echoWithCtx"]
	assert.True(t, withCtx.hasCtx)
	assert.Len(t, withCtx.argTypes, 3)

	rets := callbacks["rets"]
	assert.Equal(t, 1, rets.errPos)
	assert.Equal(t, 0, rets.retPos)

	countTo := callbacks["countTo"]
	assert.True(t, countTo.isStream)
	assert.True(t, countTo.hasCtx)
	assert.Len(t, countTo.argTypes, 1)
	assert.Equal(t, 0, countTo.errPos)
}

// Handler signatures may use unexported parameter and result types freely:
// values cross the transport by reference, never through a codec.
func TestCallbacksAcceptUnexportedTypes(t *testing.T) {
	t.Parallel()
	callbacks := suitableCallbacks(reflect.ValueOf(new(testService)))

	echo, ok := callbacks["echo"]
	require.True(t, ok)
	require.Len(t, echo.argTypes, 3)
	assert.Equal(t, reflect.TypeOf(&echoArgs{}), echo.argTypes[2])

	res, err := echo.call(context.Background(), "test_echo", []any{"hi", 7, &echoArgs{S: "x"}}, nil, logging.NewLogger("test"))
	require.NoError(t, err)
	assert.Equal(t, echoResult{"hi", 7, &echoArgs{S: "x"}}, res)
}

func TestCallbackLookup(t *testing.T) {
	t.Parallel()
	reg := NewHandlerRegistry(logging.NewLogger("test"))
	require.NoError(t, reg.RegisterName("test", new(testService)))

	assert.NotNil(t, reg.callback("test_echo"))
	assert.Nil(t, reg.callback("test_missing"))
	assert.Nil(t, reg.callback("other_echo"))
	assert.Nil(t, reg.callback("noseparator"))
}

func TestConformArg(t *testing.T) {
	t.Parallel()

	v, err := conformArg(7, reflect.TypeOf(int64(0)), "m", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Interface())

	_, err = conformArg("x", reflect.TypeOf(0), "m", 0)
	require.Error(t, err)

	v, err = conformArg(nil, reflect.TypeOf((*echoArgs)(nil)), "m", 0)
	require.NoError(t, err)
	assert.True(t, v.IsNil())

	_, err = conformArg(nil, reflect.TypeOf(0), "m", 0)
	require.Error(t, err)
}

func TestFormatName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "noArgsRets", formatName("NoArgsRets"))
	assert.Equal(t, "echo", formatName("Echo"))
	assert.Equal(t, "", formatName(""))
}

package traceparser

import (
	"fmt"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var panicTrace = []byte(`goroutine 21 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/tabsight/rollbar-client-go.(*Dispatcher).Recover(0xc0000a4000)
	/src/rollbar-client-go/events.go:131 +0x45
panic({0x6a8e20?, 0x7d3c50?})
	/usr/local/go/src/runtime/panic.go:770 +0x132
main.loadCart(...)
	/src/shop/cart.go:44
main.handler({0x7d8a18, 0xc0001a2000}, 0xc00019e000)
	/src/shop/main.go:19 +0x3b
...additional frames elided...
created by net/http.(*Server).Serve in goroutine 1
	/usr/local/go/src/net/http/server.go:3285 +0x4b4
`)

func TestParseEmpty(t *testing.T) {
	require := require.New(t)

	require.Zero(Parse(nil).Length())
	require.Zero(Parse([]byte{}).Length())
	require.Zero(Parse([]byte("\n\n")).Length())
}

func TestParseSingleTrace(t *testing.T) {
	require.Equal(t, 1, Parse(panicTrace).Length())
}

func TestFrames(t *testing.T) {
	trace := Parse(panicTrace).Item(0)
	frames := trace.Frames()

	var output strings.Builder
	for frames.HasNext() {
		frame := frames.Next()
		file, line := frame.File()
		fmt.Fprintf(&output, "%s %s:%d\n", frame.Func(), file, line)
	}

	expected := `runtime/debug.Stack /usr/local/go/src/runtime/debug/stack.go:26
github.com/tabsight/rollbar-client-go.(*Dispatcher).Recover /src/rollbar-client-go/events.go:131
panic /usr/local/go/src/runtime/panic.go:770
main.loadCart /src/shop/cart.go:44
main.handler /src/shop/main.go:19
net/http.(*Server).Serve /usr/local/go/src/net/http/server.go:3285
`
	require.Equal(t, expected, output.String())
}

func TestMultipleTraces(t *testing.T) {
	dump := []byte("goroutine 1 [running]:\nmain.main()\n\t/src/main.go:10 +0x1d\n\ngoroutine 7 [chan receive]:\nmain.worker()\n\t/src/worker.go:3 +0x25\n")

	traces := Parse(dump)
	require.Equal(t, 2, traces.Length())

	frames := traces.Item(1).Frames()
	require.True(t, frames.HasNext())
	frame := frames.Next()
	require.Equal(t, "main.worker", string(frame.Func()))
	require.False(t, frames.HasNext())
}

func TestRealStack(t *testing.T) {
	trace := Parse(debug.Stack()).Item(0)
	frames := trace.Frames()

	var funcs []string
	for frames.HasNext() {
		frame := frames.Next()
		funcs = append(funcs, string(frame.Func()))
	}

	require.Contains(t, funcs, "github.com/tabsight/rollbar-client-go/internal/traceparser.TestRealStack")
}

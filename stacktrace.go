package rollbar

import (
	"errors"
	"fmt"
	"runtime"

	goerrors "github.com/go-errors/errors"
	pingcaperrors "github.com/pingcap/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/tabsight/rollbar-client-go/internal/traceparser"
)

// Frame is one entry of an exception trace, innermost call first.
type Frame struct {
	Colno    int    `json:"colno,omitempty"`
	Filename string `json:"filename"`
	Lineno   int    `json:"lineno"`
	Method   string `json:"method"`
}

type pkgStackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

type pingcapStackTracer interface {
	StackTrace() pingcaperrors.StackTrace
}

// stackDumper is implemented by errors that captured a goroutine dump, like
// PanicError.
type stackDumper interface {
	Stack() []byte
}

// extractStack returns the stack text and the parsed frames carried by err
// or by the first error of its chain that has one. Plain errors carry no
// stack and yield an empty, non-nil frame list.
func extractStack(err error) (string, []Frame) {
	if err == nil {
		return "", []Frame{}
	}

	var goErr *goerrors.Error
	if errors.As(err, &goErr) {
		frames := lo.Map(goErr.StackFrames(), func(f goerrors.StackFrame, _ int) Frame {
			method := f.Name
			if f.Package != "" {
				method = f.Package + "." + f.Name
			}
			return Frame{Filename: f.File, Lineno: f.LineNumber, Method: method}
		})
		return string(goErr.Stack()), frames
	}

	var pkgErr pkgStackTracer
	if errors.As(err, &pkgErr) {
		st := pkgErr.StackTrace()
		pcs := lo.Map(st, func(f pkgerrors.Frame, _ int) uintptr { return uintptr(f) })
		return fmt.Sprintf("%s%+v", err.Error(), st), framesFromPCs(pcs)
	}

	var pingcapErr pingcapStackTracer
	if errors.As(err, &pingcapErr) {
		st := pingcapErr.StackTrace()
		pcs := lo.Map(st, func(f pingcaperrors.Frame, _ int) uintptr { return uintptr(f) })
		return fmt.Sprintf("%s%+v", err.Error(), st), framesFromPCs(pcs)
	}

	var dumper stackDumper
	if errors.As(err, &dumper) {
		stack := dumper.Stack()
		return string(stack), framesFromDump(stack)
	}

	return "", []Frame{}
}

// framesFromPCs resolves return addresses as recorded by runtime.Callers.
func framesFromPCs(pcs []uintptr) []Frame {
	frames := make([]Frame, 0, len(pcs))
	for _, pc := range pcs {
		// The recorded value is a return address, the call is one byte before.
		fn := runtime.FuncForPC(pc - 1)
		if fn == nil {
			frames = append(frames, Frame{Filename: unknown, Method: unknown})
			continue
		}
		file, line := fn.FileLine(pc - 1)
		frames = append(frames, Frame{Filename: file, Lineno: line, Method: fn.Name()})
	}
	return frames
}

func framesFromDump(stack []byte) []Frame {
	frames := []Frame{}
	traces := traceparser.Parse(stack)
	if traces.Length() == 0 {
		return frames
	}

	it := traces.Item(0).Frames()
	for it.HasNext() {
		frame := it.Next()
		file, line := frame.File()
		frames = append(frames, Frame{
			Filename: string(file),
			Lineno:   line,
			Method:   string(frame.Func()),
		})
	}
	return frames
}

// Package traceparser reads the goroutine dumps produced by runtime.Stack
// and runtime/debug.Stack, which is the only stack text a recovered panic
// carries.
package traceparser

import (
	"bytes"
	"strconv"
)

var (
	blockSeparator = []byte("\n\n")
	lineSeparator  = []byte("\n")

	createdByPrefix  = []byte("created by ")
	inGoroutineInfix = []byte(" in goroutine ")
)

const framesElided = "...additional frames elided..."

// Parse splits a goroutine dump into its traces. The input must be
// well-formed, see runtime/mprof.go.
func Parse(data []byte) TraceCollection {
	var c TraceCollection
	if len(bytes.TrimSpace(data)) > 0 {
		c.blocks = bytes.Split(data, blockSeparator)
	}
	return c
}

// TraceCollection holds one trace per goroutine.
type TraceCollection struct {
	blocks [][]byte
}

func (c TraceCollection) Length() int {
	return len(c.blocks)
}

// Item returns the trace at index i.
func (c TraceCollection) Item(i int) Trace {
	data := bytes.Trim(c.blocks[i], "\n")

	splitAt := bytes.IndexByte(data, '\n')
	if splitAt < 0 {
		return Trace{header: data}
	}
	return Trace{header: data[:splitAt], data: data[splitAt+1:]}
}

// Trace is a single goroutine block: a "goroutine N [state]:" header
// followed by pairs of function and file lines.
type Trace struct {
	header []byte
	data   []byte
}

// Frames iterates over the frames of the trace, innermost first.
func (t Trace) Frames() FrameIterator {
	var lines [][]byte
	if len(t.data) > 0 {
		lines = bytes.Split(t.data, lineSeparator)
	}
	return FrameIterator{lines: lines}
}

// FrameIterator iterates over stack frames.
type FrameIterator struct {
	lines [][]byte
	i     int
}

// HasNext reports whether another frame can be read.
func (it *FrameIterator) HasNext() bool {
	for it.i < len(it.lines) && string(it.lines[it.i]) == framesElided {
		it.i++
	}
	return it.i < len(it.lines)
}

// Next returns the next frame.
func (it *FrameIterator) Next() Frame {
	return Frame{funcLine: it.popLine(), fileLine: it.popLine()}
}

func (it *FrameIterator) popLine() []byte {
	for it.i < len(it.lines) {
		line := it.lines[it.i]
		it.i++
		if string(line) != framesElided {
			return line
		}
	}
	return nil
}

// Frame is one function call: the function line and the file line below it.
type Frame struct {
	funcLine []byte
	fileLine []byte
}

// Func returns the fully qualified function name without its arguments.
func (f Frame) Func() []byte {
	line := f.funcLine
	if bytes.HasPrefix(line, createdByPrefix) {
		line = line[len(createdByPrefix):]
		// Since go1.21 the line ends with " in goroutine N".
		if at := bytes.Index(line, inGoroutineInfix); at >= 0 {
			return line[:at]
		}
		return line
	}

	if end := bytes.LastIndexByte(line, '('); end > 0 {
		return line[:end]
	}
	return line
}

// File returns the source path and line number, dropping the PC offset.
func (f Frame) File() (path []byte, lineNumber int) {
	line := bytes.TrimPrefix(f.fileLine, []byte("\t"))

	if splitAt := bytes.IndexByte(line, ' '); splitAt >= 0 {
		line = line[:splitAt]
	}

	splitAt := bytes.LastIndexByte(line, ':')
	if splitAt < 0 {
		return line, 0
	}

	lineNumber, _ = strconv.Atoi(string(line[splitAt+1:]))
	return line[:splitAt], lineNumber
}

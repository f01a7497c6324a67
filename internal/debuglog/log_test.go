package debuglog

import (
	"bytes"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
)

func TestGetLogger(t *testing.T) {
	if GetLogger() == nil {
		t.Error("GetLogger returned nil")
	}
}

func TestPrefix(t *testing.T) {
	if got := GetLogger().Prefix(); got != "[Rollbar] " {
		t.Errorf("unexpected prefix %q", got)
	}
}

func TestPrintf(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(io.Discard)

	Printf("sending %s to %d endpoints", "item", 2)

	if output := buf.String(); !strings.Contains(output, "sending item to 2 endpoints") {
		t.Errorf("Printf output incorrect: got %q", output)
	}
}

func TestPrintln(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(io.Discard)

	Println("beacon", "queued")

	if output := buf.String(); !strings.Contains(output, "beacon queued") {
		t.Errorf("Println output incorrect: got %q", output)
	}
}

func TestSetLogger(t *testing.T) {
	previous := GetLogger()
	defer SetLogger(previous)

	var buf bytes.Buffer
	SetLogger(log.New(&buf, "custom: ", 0))
	Printf("hello")

	if got := buf.String(); got != "custom: hello\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestConcurrentAccess(_ *testing.T) {
	var wg sync.WaitGroup

	for i := 0; i < 500; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			Printf("concurrent message %d", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = GetLogger()
		}()
	}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetOutput(io.Discard)
		}()
	}

	wg.Wait()
}

package log

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	SetNoColor(true)
	t.Cleanup(func() {
		SetOutput(nil, nil)
		SetVerbose(false)
		SetForceStdErr(false)
		EnableLogs()
	})
	return &out, &errOut
}

func TestLevels(t *testing.T) {
	out, errOut := captureOutput(t)

	Debugf("hidden %d", 1)
	Infof("info %s", "msg")
	Warnf("warn")
	Errorf("error %v", "boom")

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("debug message printed without verbose: %q", out.String())
	}
	if !strings.Contains(out.String(), "[INF] info msg\n") {
		t.Errorf("stdout = %q, want info line", out.String())
	}
	if !strings.Contains(out.String(), "[WRN] warn\n") {
		t.Errorf("stdout = %q, want warn line", out.String())
	}
	if errOut.String() != "[ERR] error boom\n" {
		t.Errorf("stderr = %q, want error line only", errOut.String())
	}
}

func TestVerbose(t *testing.T) {
	out, _ := captureOutput(t)

	SetVerbose(true)
	if !IsVerbose() {
		t.Fatal("IsVerbose() = false after SetVerbose(true)")
	}
	Debugf("trace %d", 42)

	if out.String() != "[DBG] trace 42\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestDisableLogs(t *testing.T) {
	out, errOut := captureOutput(t)

	DisableLogs()
	if !IsDisabled() {
		t.Fatal("IsDisabled() = false after DisableLogs()")
	}
	Infof("nothing")
	Errorf("nothing")

	if out.Len() != 0 || errOut.Len() != 0 {
		t.Errorf("expected no output, got %q / %q", out.String(), errOut.String())
	}
}

func TestForceStdErr(t *testing.T) {
	out, errOut := captureOutput(t)

	SetForceStdErr(true)
	Infof("to stderr")

	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}
	if errOut.String() != "[INF] to stderr\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestConcurrentLogging(t *testing.T) {
	out, _ := captureOutput(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			Infof("line %d", i)
		}(i)
	}
	wg.Wait()

	if got := strings.Count(out.String(), "\n"); got != 20 {
		t.Errorf("got %d lines, want 20", got)
	}
}

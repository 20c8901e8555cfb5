package filter

import (
	"testing"

	"filterexpr/compiler"
)

func TestCompileAndRun(t *testing.T) {
	p, err := Compile(`.year > 1980 and .title == 'The Matrix'`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	defer p.Free()

	if !p.Run([]byte(`{"year": 1999, "title": "The Matrix"}`)) {
		t.Error("expected match")
	}
	if p.Run([]byte(`{"year": 1975, "title": "The Matrix"}`)) {
		t.Error("expected no match: year too early")
	}
}

func TestCompileErrorReportsOffset(t *testing.T) {
	_, err := Compile(`((1+2)`)
	if err == nil {
		t.Fatal("expected a compile error for an unmatched '('")
	}
	cerr, ok := err.(*compiler.Error)
	if !ok {
		t.Fatalf("expected *compiler.Error, got %T", err)
	}
	// The inner '(' is closed by the ')'; the outer one at offset 0 is not.
	if cerr.Offset != 0 {
		t.Errorf("got offset %d, want 0", cerr.Offset)
	}
}

func TestFreeIsIdempotentAndNilSafe(t *testing.T) {
	var nilProgram *Program
	nilProgram.Free()
	if nilProgram.Run([]byte(`{}`)) {
		t.Error("Run on a nil Program should report false, not panic")
	}

	p, err := Compile(`1 == 1`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	p.Free()
	p.Free()
	if !p.Run([]byte(`{}`)) {
		t.Error("Run after Free should still work: Free is a no-op")
	}
}

func TestRunIsSafeFromMultipleGoroutines(t *testing.T) {
	p, err := Compile(`.n % 3 == 0`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 50; i++ {
		go func(n int) {
			p.Run([]byte(`{"n": 9}`))
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 50; i++ {
		<-done
	}
}

package fn

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

// --- Result ---

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
}

func TestErrf(t *testing.T) {
	r := Errf[string]("code %d", 404)
	_, err := r.Unwrap()
	if err == nil || err.Error() != "code 404" {
		t.Fatal("Errf wrong message")
	}
}

func TestMustPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Must should panic on Err")
		}
	}()
	Err[int](errors.New("boom")).Must()
}

func TestUnwrapOr(t *testing.T) {
	if got := Err[int](errors.New("x")).UnwrapOr(7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	if got := Ok(3).UnwrapOr(7); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMapAndAndThen(t *testing.T) {
	r := Ok(2).Map(func(x int) int { return x * 10 }).AndThen(func(x int) Result[int] {
		if x != 20 {
			return Errf[int]("unexpected %d", x)
		}
		return Ok(x + 1)
	})
	v, err := r.Unwrap()
	if err != nil || v != 21 {
		t.Fatalf("got v=%d err=%v", v, err)
	}
}

func TestMapResult(t *testing.T) {
	r := MapResult(Ok(42), strconv.Itoa)
	v, err := r.Unwrap()
	if err != nil || v != "42" {
		t.Fatalf("got v=%q err=%v", v, err)
	}
}

func TestFromPair(t *testing.T) {
	if FromPair(1, errors.New("x")).IsOk() {
		t.Fatal("expected err result")
	}
	if !FromPair(1, nil).IsOk() {
		t.Fatal("expected ok result")
	}
}

func TestCollect(t *testing.T) {
	ok := Collect([]Result[int]{Ok(1), Ok(2)})
	vs, err := ok.Unwrap()
	if err != nil || len(vs) != 2 {
		t.Fatalf("got %v err=%v", vs, err)
	}

	bad := Collect([]Result[int]{Ok(1), Err[int](errors.New("mid")), Ok(3)})
	if !bad.IsErr() {
		t.Fatal("expected first error to surface")
	}
}

// --- Pipeline ---

func TestThenShortCircuits(t *testing.T) {
	first := Stage[int, int](func(_ context.Context, x int) Result[int] {
		return Err[int](errors.New("stage one failed"))
	})
	second := Stage[int, string](func(_ context.Context, x int) Result[string] {
		t.Fatal("second stage must not run")
		return Ok("")
	})
	r := Then(first, second)(context.Background(), 1)
	if !r.IsErr() {
		t.Fatal("expected error")
	}
}

func TestPipelineRunsInOrder(t *testing.T) {
	var order []string
	mk := func(name string) Stage[int, int] {
		return func(_ context.Context, x int) Result[int] {
			order = append(order, name)
			return Ok(x + 1)
		}
	}
	r := Pipeline(mk("a"), mk("b"), mk("c"))(context.Background(), 0)
	v, err := r.Unwrap()
	if err != nil || v != 3 {
		t.Fatalf("got v=%d err=%v", v, err)
	}
	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Fatalf("wrong order: %v", order)
	}
}

func TestTapStage(t *testing.T) {
	seen := 0
	r := TapStage(func(_ context.Context, x int) { seen = x })(context.Background(), 9)
	if v, _ := r.Unwrap(); v != 9 || seen != 9 {
		t.Fatalf("tap changed value or skipped side effect: v=%d seen=%d", v, seen)
	}
}

// --- Retry ---

func TestRetryEventualSuccess(t *testing.T) {
	attempts := 0
	opts := RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		attempts++
		if attempts < 3 {
			return Errf[int]("attempt %d", attempts)
		}
		return Ok(99)
	})
	v, err := r.Unwrap()
	if err != nil || v != 99 {
		t.Fatalf("got v=%d err=%v", v, err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	opts := RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		attempts++
		return Errf[int]("always")
	})
	if !r.IsErr() || attempts != 2 {
		t.Fatalf("expected 2 failed attempts, got %d, err=%v", attempts, r.IsErr())
	}
}

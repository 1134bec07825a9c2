package appcore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"devicecode-water/errcode"
)

func TestStart_SeedsAndRunsTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	ran := map[string]bool{}
	mark := func(name string) Task {
		return func(ctx context.Context) {
			mu.Lock()
			ran[name] = true
			mu.Unlock()
			<-ctx.Done()
		}
	}

	h, err := Start(ctx, NewCoreToken(SecondCore()), NewArena(8192), func(s *Spawner) {
		if err := s.Spawn("status", 2048, mark("status")); err != nil {
			t.Errorf("spawn status: %v", err)
		}
		if err := s.Spawn("heartbeat", 1024, mark("heartbeat")); err != nil {
			t.Errorf("spawn heartbeat: %v", err)
		}
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Wait(); err != nil {
		t.Fatalf("Wait = %v", err)
	}
	if got := h.Tasks(); len(got) != 2 || got[0] != "status" || got[1] != "heartbeat" {
		t.Fatalf("tasks = %v", got)
	}
	if h.ArenaUsed() != 3072 {
		t.Fatalf("arena used = %d", h.ArenaUsed())
	}

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(ran)
		mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("tasks did not start")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	done := make(chan struct{})
	go func() { h.Join(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not exit on cancel")
	}
}

func TestStart_SecondStartRejected(t *testing.T) {
	tok := NewCoreToken(SecondCore())
	seed := func(*Spawner) {}

	if _, err := Start(context.Background(), tok, NewArena(0), seed, nil); err != nil {
		t.Fatal(err)
	}
	_, err := Start(context.Background(), tok, NewArena(0), seed, nil)
	if !errors.Is(err, errcode.AlreadyStarted) {
		t.Fatalf("second start = %v, want already_started", err)
	}
}

func TestStart_ArenaReuseRejected(t *testing.T) {
	arena := NewArena(0)
	seed := func(*Spawner) {}
	if _, err := Start(context.Background(), NewCoreToken(SecondCore()), arena, seed, nil); err != nil {
		t.Fatal(err)
	}
	_, err := Start(context.Background(), NewCoreToken(SecondCore()), arena, seed, nil)
	if !errors.Is(err, errcode.ArenaInUse) {
		t.Fatalf("arena reuse = %v, want arena_in_use", err)
	}
}

func TestStart_InvalidArguments(t *testing.T) {
	seed := func(*Spawner) {}
	for name, call := range map[string]func() error{
		"nil token": func() error { _, err := Start(context.Background(), nil, NewArena(0), seed, nil); return err },
		"nil arena": func() error {
			_, err := Start(context.Background(), NewCoreToken(SecondCore()), nil, seed, nil)
			return err
		},
		"nil seed": func() error {
			_, err := Start(context.Background(), NewCoreToken(SecondCore()), NewArena(0), nil, nil)
			return err
		},
	} {
		if errcode.Of(call()) != errcode.InvalidParams {
			t.Fatalf("%s: want invalid_params", name)
		}
	}
}

func TestStart_CorePortFailure(t *testing.T) {
	broken := CoreFunc(func(func()) error { return errors.New("fifo handshake") })
	_, err := Start(context.Background(), NewCoreToken(broken), NewArena(0), func(*Spawner) {}, nil)
	if errcode.Of(err) != errcode.HardwareError {
		t.Fatalf("code = %q", errcode.Of(err))
	}
}

func TestSpawn_ArenaExhaustionIsNonFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var results []error
	h, err := Start(ctx, NewCoreToken(SecondCore()), NewArena(4096), func(s *Spawner) {
		idle := func(ctx context.Context) { <-ctx.Done() }
		results = append(results,
			s.Spawn("a", 3000, idle),
			s.Spawn("b", 2000, idle), // does not fit
			s.Spawn("c", 1000, idle),
		)
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	werr := h.Wait()
	if !errors.Is(werr, errcode.SpawnFailed) {
		t.Fatalf("Wait = %v, want spawn_failed", werr)
	}
	if results[0] != nil || !errors.Is(results[1], errcode.SpawnFailed) || results[2] != nil {
		t.Fatalf("spawn results = %v", results)
	}
	if got := h.Tasks(); len(got) != 2 {
		t.Fatalf("tasks = %v", got)
	}
	if h.ArenaUsed() != 4000 {
		t.Fatalf("arena used = %d", h.ArenaUsed())
	}
}

func TestSpawn_ClosedAfterSeed(t *testing.T) {
	var kept *Spawner
	h, err := Start(context.Background(), NewCoreToken(SecondCore()), NewArena(0), func(s *Spawner) { kept = s }, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = h.Wait()
	if err := kept.Spawn("late", 128, func(context.Context) {}); !errors.Is(err, errcode.SpawnClosed) {
		t.Fatalf("late spawn = %v", err)
	}
}

func TestSeed_RunsOnceBeforeTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu    sync.Mutex
		order []string
	)
	log := func(s string) { mu.Lock(); order = append(order, s); mu.Unlock() }

	h, err := Start(ctx, NewCoreToken(SecondCore()), NewArena(0), func(s *Spawner) {
		_ = s.Spawn("t", 512, func(context.Context) { log("task") })
		time.Sleep(10 * time.Millisecond)
		log("seed-done")
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = h.Wait()
	cancel()
	h.Join()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "seed-done" || order[1] != "task" {
		t.Fatalf("order = %v", order)
	}
}

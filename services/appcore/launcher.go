// Package appcore brings up the second execution core and seeds it with the
// application tasks (status display, heartbeat LED and similar).
//
// Start consumes the core token and the arena, launches an executor on the
// other core and runs the seed function there exactly once. Tasks registered
// by the seed start only after it returns; later Spawn calls are rejected.
package appcore

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"devicecode-water/errcode"
	"devicecode-water/x/strx"
)

// Task is a body run on the second core until ctx ends.
type Task func(ctx context.Context)

type task struct {
	name  string
	stack int
	run   Task
}

// Spawner registers tasks during seeding.
type Spawner struct {
	mu     sync.Mutex
	arena  *Arena
	tasks  []task
	errs   []error
	closed bool
	log    *slog.Logger
}

// Spawn registers a task with a declared stack budget. A failed spawn is
// logged; the caller may ignore the error and carry on.
func (s *Spawner) Spawn(name string, stackBytes int, run Task) error {
	name = strx.Coalesce(name, "task")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errcode.SpawnClosed
	}
	if run == nil {
		return s.reject(name, errcode.InvalidParams)
	}
	if err := s.arena.reserve(stackBytes); err != nil {
		return s.reject(name, errcode.Of(err))
	}
	s.tasks = append(s.tasks, task{name: name, stack: stackBytes, run: run})
	s.log.Debug("core1:spawned", slog.String("task", name), slog.Int("stack", stackBytes))
	return nil
}

func (s *Spawner) reject(name string, c errcode.Code) error {
	err := &errcode.E{C: c, Op: "core1:spawn", Msg: name}
	s.errs = append(s.errs, err)
	s.log.Error("core1:spawn-failed", slog.String("task", name), slog.String("err", string(c)))
	return err
}

func (s *Spawner) close() []task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.tasks
}

// Executor runs the seeded tasks on the second core.
type Executor struct {
	ctx context.Context
	wg  sync.WaitGroup
	log *slog.Logger
}

func newExecutor(ctx context.Context, log *slog.Logger) *Executor {
	return &Executor{ctx: ctx, log: log}
}

func (e *Executor) run(tasks []task) {
	for _, t := range tasks {
		e.wg.Add(1)
		go func(t task) {
			defer e.wg.Done()
			t.run(e.ctx)
			e.log.Debug("core1:task-exit", slog.String("task", t.name))
		}(t)
	}
}

// Handle reports on a started core. Keep it for the life of the firmware.
type Handle struct {
	seeded chan struct{}
	exec   *Executor
	spawn  *Spawner
	err    error
}

// Wait blocks until seeding has finished. It returns the joined spawn
// failures, if any.
func (h *Handle) Wait() error {
	<-h.seeded
	return h.err
}

// Tasks returns the names of the running tasks.
func (h *Handle) Tasks() []string {
	<-h.seeded
	h.spawn.mu.Lock()
	defer h.spawn.mu.Unlock()
	out := make([]string, len(h.spawn.tasks))
	for i, t := range h.spawn.tasks {
		out[i] = t.name
	}
	return out
}

// ArenaUsed is the number of arena bytes charged to tasks.
func (h *Handle) ArenaUsed() int { return h.spawn.arena.Used() }

// Join blocks until every task has returned. Tasks return when the Start
// context ends.
func (h *Handle) Join() {
	<-h.seeded
	h.exec.wg.Wait()
}

// Start launches the second core. The token and arena are consumed even if
// the core port fails, so there is no second try within a boot.
func Start(ctx context.Context, token *CoreToken, arena *Arena, seed func(*Spawner), log *slog.Logger) (*Handle, error) {
	if token == nil || arena == nil || seed == nil || token.core == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "core1:start"}
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("svc", "core1"))

	if err := token.take(); err != nil {
		return nil, err
	}
	if err := arena.claim(); err != nil {
		return nil, err
	}

	h := &Handle{
		seeded: make(chan struct{}),
		spawn:  &Spawner{arena: arena, log: log},
	}
	entry := func() {
		h.exec = newExecutor(ctx, log)
		seed(h.spawn)
		tasks := h.spawn.close()
		h.err = errors.Join(h.spawn.errs...)
		log.Info("core1:seeded",
			slog.Int("tasks", len(tasks)),
			slog.Int("arena_used", arena.Used()),
			slog.Int("arena_size", arena.Size()),
		)
		h.exec.run(tasks)
		close(h.seeded)
	}
	if err := token.core.Launch(entry); err != nil {
		return nil, errcode.Wrap(errcode.HardwareError, "core1:start", err)
	}
	return h, nil
}

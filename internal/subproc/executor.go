package subproc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Request describes one command invocation. Argv[0] is the binary; it is
// resolved through PATH by the executor.
type Request struct {
	Argv []string
	Dir  string
	Env  []string
}

// Executor abstracts command execution for testability.
//
// Run returns the exit code of the finished process. A nil error with a
// non-zero code means the command itself failed; a non-nil error means the
// command could not be run to completion (spawn failure, output scan failure,
// or cancellation). onLine receives merged stdout/stderr lines in arrival
// order and may be nil.
type Executor interface {
	Run(ctx context.Context, req Request, onLine func(string)) (int, error)
}

// NewExecutor returns the process-backed executor.
func NewExecutor() Executor {
	return commandExecutor{}
}

// terminationGrace bounds how long a cancelled child may linger after the
// process group receives SIGTERM before the leader is killed outright.
const terminationGrace = 10 * time.Second

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, req Request, onLine func(string)) (int, error) {
	if len(req.Argv) == 0 {
		return -1, errors.New("empty argv")
	}

	cmd := exec.CommandContext(ctx, req.Argv[0], req.Argv[1:]...) //nolint:gosec
	cmd.Dir = req.Dir
	if len(req.Env) > 0 {
		cmd.Env = append(os.Environ(), req.Env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative PID addresses the whole process group.
		return unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
	}
	cmd.WaitDelay = terminationGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	var mu sync.Mutex
	forward := func(line string) {
		if onLine == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onLine(line)
	}

	wg.Add(2)
	go scan(stdout, forward)
	go scan(stderr, forward)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return -1, fmt.Errorf("scan output: %w", scanErr)
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("wait command: %w", waitErr)
	}
	return 0, nil
}

package testsupport

import (
	"context"
	"strings"
	"sync"

	"upkeep/internal/subproc"
)

// FakeResult scripts the outcome of one command under a FakeExecutor.
type FakeResult struct {
	Lines []string
	Exit  int
	Err   error
}

// FakeExecutor implements subproc.Executor with scripted per-command results
// and a record of every invocation. The zero result (exit 0, no output)
// applies to commands without a stub.
type FakeExecutor struct {
	mu       sync.Mutex
	calls    [][]string
	exact    map[string]FakeResult
	prefixes []prefixStub
}

type prefixStub struct {
	prefix string
	result FakeResult
}

// NewFakeExecutor returns an executor where every command succeeds silently
// until stubbed otherwise.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{exact: make(map[string]FakeResult)}
}

// Stub scripts the result for an exact command line (argv joined by spaces).
func (f *FakeExecutor) Stub(command string, result FakeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exact[command] = result
}

// StubPrefix scripts the result for any command line starting with prefix.
// Exact stubs win over prefix stubs; earlier prefixes win over later ones.
func (f *FakeExecutor) StubPrefix(prefix string, result FakeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefixStub{prefix: prefix, result: result})
}

// Run implements subproc.Executor.
func (f *FakeExecutor) Run(ctx context.Context, req subproc.Request, onLine func(string)) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	command := strings.Join(req.Argv, " ")

	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), req.Argv...))
	result, ok := f.exact[command]
	if !ok {
		for _, stub := range f.prefixes {
			if strings.HasPrefix(command, stub.prefix) {
				result = stub.result
				break
			}
		}
	}
	f.mu.Unlock()

	if result.Err != nil {
		return -1, result.Err
	}
	if onLine != nil {
		for _, line := range result.Lines {
			onLine(line)
		}
	}
	return result.Exit, nil
}

// Calls returns a copy of every argv Run received, in order.
func (f *FakeExecutor) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	for i, call := range f.calls {
		out[i] = append([]string(nil), call...)
	}
	return out
}

// CallCount reports how many commands Run received.
func (f *FakeExecutor) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

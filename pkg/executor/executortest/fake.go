// Package executortest provides a scriptable executor.Executor for tests.
package executortest

import (
	"context"
	"strings"
	"sync"
)

type Call struct {
	Name string
	Args []string
}

// Fake records every call and answers with Handler. A nil Handler returns
// empty output and no error.
type Fake struct {
	Handler func(name string, args []string) (string, error)

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Handler == nil {
		return "", nil
	}
	return f.Handler(name, args)
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the calls made to the named binary.
func (f *Fake) CallsTo(name string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Arg returns the value following flag in args, or "".
func Arg(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// Last returns the final argument, which is the output path for ffmpeg.
func Last(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[len(args)-1]
}

// Has reports whether args contains s.
func Has(args []string, s string) bool {
	for _, a := range args {
		if a == s || strings.HasPrefix(a, s+"=") {
			return true
		}
	}
	return false
}

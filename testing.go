package extractors

import (
	"context"
	"sync"
)

// StubInvoker is an Invoker for tests. It replays canned replies in order,
// repeating the last one, and records every prompt it receives.
type StubInvoker struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
	served  int
}

// NewStubInvoker returns a stub that answers with replies.
func NewStubInvoker(replies ...string) *StubInvoker {
	return &StubInvoker{replies: replies}
}

// FailNext makes the next calls fail with errs, in order, before any reply
// is served.
func (s *StubInvoker) FailNext(errs ...error) *StubInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, errs...)
	return s
}

// Prompts returns the prompts received so far.
func (s *StubInvoker) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *StubInvoker) Generate(ctx context.Context, model Model, prompt string, params map[string]string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	if len(s.replies) == 0 {
		return nil, nil
	}
	reply := s.replies[min(s.served, len(s.replies)-1)]
	s.served++
	return []byte(reply), nil
}

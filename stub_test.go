package aspectree

import (
	"context"
	"errors"
	"sync"
)

// scriptedOracle replays canned responses per system prompt, in order. It
// errors once a queue runs dry, so tests implicitly pin their call counts.
type scriptedOracle struct {
	mu        sync.Mutex
	responses map[string][]string
	idx       map[string]int

	costPerCall float64
	calls       int
}

func newScriptedOracle() *scriptedOracle {
	return &scriptedOracle{
		responses: make(map[string][]string),
		idx:       make(map[string]int),
	}
}

func (s *scriptedOracle) script(system string, texts ...string) *scriptedOracle {
	s.responses[system] = append(s.responses[system], texts...)
	return s
}

// scriptRepeat queues the same response n times.
func (s *scriptedOracle) scriptRepeat(system, text string, n int) *scriptedOracle {
	for i := 0; i < n; i++ {
		s.script(system, text)
	}
	return s
}

func (s *scriptedOracle) Complete(_ context.Context, req CompletionRequest) (Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	queue, ok := s.responses[req.System]
	if !ok {
		return Completion{}, errors.New("unexpected system prompt: " + req.System)
	}
	i := s.idx[req.System]
	if i >= len(queue) {
		return Completion{}, errors.New("no scripted response available for: " + req.System)
	}
	s.idx[req.System] = i + 1
	return Completion{Text: queue[i], Cost: s.costPerCall}, nil
}

// failingOracle fails every call.
type failingOracle struct{ err error }

func (f failingOracle) Complete(context.Context, CompletionRequest) (Completion, error) {
	return Completion{}, f.err
}

// echoOracle answers every call with a fixed response per system prompt,
// never running dry. Used where call order is irrelevant.
type echoOracle struct {
	mu        sync.Mutex
	responses map[string]string
	calls     int
}

func newEchoOracle() *echoOracle {
	return &echoOracle{responses: make(map[string]string)}
}

func (e *echoOracle) set(system, text string) *echoOracle {
	e.responses[system] = text
	return e
}

func (e *echoOracle) Complete(_ context.Context, req CompletionRequest) (Completion, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	text, ok := e.responses[req.System]
	if !ok {
		return Completion{}, errors.New("unexpected system prompt: " + req.System)
	}
	return Completion{Text: text}, nil
}

const keepEvaluation = "RELEVANCE_SCORE: 8\nADDS_VALUE: Yes\nCOMPLEMENTARITY: Medium\nREDUNDANCY: No\nPATH_COHERENCE: Medium"

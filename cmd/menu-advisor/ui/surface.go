package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"menu-advisor/internal/engine/render"
)

// instructionMsg carries one render instruction into the bubbletea loop.
type instructionMsg render.Instruction

// ChannelSurface hands instructions from the session to the program.
// Render never blocks: the session loop must not wait on the UI while
// the UI is waiting to dispatch an event into that same loop.
type ChannelSurface struct {
	mu        sync.Mutex
	queue     []render.Instruction
	ready     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannelSurface returns a surface whose queue starts with room for
// capacity instructions and grows as needed.
func NewChannelSurface(capacity int) *ChannelSurface {
	return &ChannelSurface{
		queue: make([]render.Instruction, 0, capacity),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Render queues in in order. After Close it drops instructions.
func (s *ChannelSurface) Render(in render.Instruction) {
	select {
	case <-s.done:
		return
	default:
	}

	s.mu.Lock()
	s.queue = append(s.queue, in)
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *ChannelSurface) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *ChannelSurface) pop() (render.Instruction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return render.Instruction{}, false
	}
	in := s.queue[0]
	s.queue[0] = render.Instruction{}
	s.queue = s.queue[1:]
	return in, true
}

// Next waits for the next instruction. It returns nil once the surface is
// closed. Only one Next command is outstanding at a time.
func (s *ChannelSurface) Next() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case <-s.done:
				return nil
			default:
			}
			if in, ok := s.pop(); ok {
				return instructionMsg(in)
			}
			select {
			case <-s.ready:
			case <-s.done:
				return nil
			}
		}
	}
}

package ui

import (
	"context"
	"errors"
	"mqtt-console/application"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// ProgramRenderer forwards controller snapshots to a running program.
// Snapshots rendered before Attach are dropped; the model reads the
// current state when it is built.
type ProgramRenderer struct {
	mu      sync.Mutex
	program *tea.Program
}

func (r *ProgramRenderer) Attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = p
}

func (r *ProgramRenderer) Render(state application.State) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()

	if p != nil {
		p.Send(StateMsg{State: state})
	}
}

var _ application.Renderer = &ProgramRenderer{}

// Run shows the console until the user quits or ctx is cancelled.
func Run(ctx context.Context, renderer *ProgramRenderer, params ModelParams, opts ...tea.ProgramOption) error {
	model, err := NewModel(ctx, params)
	if err != nil {
		return err
	}

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(model, opts...)
	renderer.Attach(p)
	defer renderer.Attach(nil)

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/inkling/internal/config"
	"github.com/Thermoquad/inkling/pkg/display"
	"github.com/Thermoquad/inkling/pkg/transfer"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Messages
type transferEventMsg transfer.Event
type pushDoneMsg struct {
	err error
}

// progressModel shows one transfer.
type progressModel struct {
	name     string
	bar      progress.Model
	event    transfer.Event
	started  time.Time
	elapsed  time.Duration
	done     bool
	err      error
	quitting bool
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)

func newProgressModel(name string) progressModel {
	return progressModel{
		name:    name,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		started: time.Now(),
	}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-4, 60)

	case transferEventMsg:
		m.event = transfer.Event(msg)
		m.elapsed = time.Since(m.started)

	case pushDoneMsg:
		m.done = true
		m.err = msg.err
		m.elapsed = time.Since(m.started)
		return m, tea.Quit
	}

	return m, nil
}

func (m progressModel) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("INKLING - " + m.name))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render("Press 'q' to quit"))
	s.WriteString("\n\n")

	s.WriteString(m.bar.ViewAs(m.event.Fraction()))
	s.WriteString("\n\n")

	fmt.Fprintf(&s, "%s %s   %s %s   %s %s\n",
		labelStyle.Render("State:"), valueStyle.Render(m.event.State.String()),
		labelStyle.Render("Chunk:"), valueStyle.Render(fmt.Sprintf("%d/%d", min(m.event.Chunk+1, m.event.Chunks), m.event.Chunks)),
		labelStyle.Render("Bytes:"), valueStyle.Render(fmt.Sprintf("%d/%d", m.event.Sent, m.event.Total)),
	)

	switch {
	case m.done && m.err != nil:
		s.WriteString(errorStyle.Render("FAILED: " + m.err.Error()))
		s.WriteString("\n")
	case m.done:
		s.WriteString(valueStyle.Render(fmt.Sprintf("Delivered in %s", m.elapsed.Round(time.Millisecond))))
		s.WriteString("\n")
	case m.quitting:
		s.WriteString("Shutting down...\n")
	}
	return s.String()
}

// runWithProgress pushes to a single display while a progress view follows
// the transfer events.
func runWithProgress(ctx context.Context, d config.DisplayConfig, fn func(*display.Display) error) error {
	p := tea.NewProgram(newProgressModel(d.Name))

	go func() {
		err := pushTo(ctx, d, func(ev transfer.Event) { p.Send(transferEventMsg(ev)) }, fn)
		p.Send(pushDoneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	fm, ok := final.(progressModel)
	if !ok || !fm.done {
		return transferError(errors.New("interrupted before the transfer finished"))
	}
	return fm.err
}

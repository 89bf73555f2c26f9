package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/modkit/errors"
	"github.com/wippyai/modkit/handle"
	"github.com/wippyai/modkit/resolver"
	"github.com/wippyai/modkit/runtime"
)

// historySize bounds the lookups kept on screen.
const historySize = 8

func newExploreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Resolve specifiers interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.InvalidInput(errors.PhaseConfig, "explore needs an interactive terminal")
			}

			rt, err := a.runtime()
			if err != nil {
				return err
			}
			defer rt.Close()

			h, root, err := rt.NewResolver(a.cfg.Resolver)
			if err != nil {
				return err
			}

			p := tea.NewProgram(newExploreModel(rt, h, root), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

type lookup struct {
	err       error
	specifier string
	referrer  string
	path      string
	typ       resolver.ResolutionType
}

type exploreModel struct {
	rt       *runtime.Runtime
	root     string
	history  []lookup
	inputs   []textinput.Model
	h        handle.Handle
	focusIdx int
	typ      resolver.ResolutionType
}

func newExploreModel(rt *runtime.Runtime, h handle.Handle, root string) *exploreModel {
	spec := textinput.New()
	spec.Prompt = "specifier: "
	spec.Placeholder = "./util, react, #internal"
	spec.Width = 48
	spec.Focus()

	ref := textinput.New()
	ref.Prompt = "from:      "
	ref.Placeholder = "root-relative referrer (empty: project root)"
	ref.Width = 48

	return &exploreModel{
		rt:     rt,
		root:   root,
		inputs: []textinput.Model{spec, ref},
		h:      h,
		typ:    resolver.Import,
	}
}

type resolvedMsg lookup

func (m *exploreModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *exploreModel) resolve() tea.Msg {
	l := lookup{
		specifier: strings.TrimSpace(m.inputs[0].Value()),
		referrer:  strings.TrimSpace(m.inputs[1].Value()),
		typ:       m.typ,
	}
	ref := l.referrer
	if ref != "" && !filepath.IsAbs(ref) {
		ref = filepath.Join(m.root, ref)
	}
	l.path, l.err = m.rt.Resolve(m.h, l.specifier, ref, l.typ)
	return resolvedMsg(l)
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			if strings.TrimSpace(m.inputs[0].Value()) == "" {
				return m, nil
			}
			return m, m.resolve

		case "tab", "shift+tab":
			m.inputs[m.focusIdx].Blur()
			m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
			m.inputs[m.focusIdx].Focus()
			return m, nil

		case "ctrl+t":
			if m.typ == resolver.Import {
				m.typ = resolver.Require
			} else {
				m.typ = resolver.Import
			}
			return m, nil
		}

	case resolvedMsg:
		m.history = append([]lookup{lookup(msg)}, m.history...)
		if len(m.history) > historySize {
			m.history = m.history[:historySize]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

func (m *exploreModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("modkit explore"))
	b.WriteString(" ")
	b.WriteString(pathStyle.Render(m.root))
	b.WriteString("\n\n")

	for _, input := range m.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("type:      ")
	b.WriteString(selectedStyle.Render(" " + m.typ.String() + " "))
	b.WriteString("\n\n")

	for i, l := range m.history {
		line := fmt.Sprintf("%s (%s)", l.specifier, l.typ)
		if l.referrer != "" {
			line += " from " + l.referrer
		}
		if l.err != nil {
			line += "\n    " + errorStyle.Render(l.err.Error())
		} else {
			line += " → " + okStyle.Render(l.path)
		}
		if i == 0 {
			b.WriteString("> ")
		} else {
			b.WriteString("  ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.history) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter resolve • tab next field • ctrl+t import/require • esc quit"))
	return b.String()
}

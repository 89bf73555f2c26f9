package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/modkit/resolver"
)

func newTestExplore(t *testing.T) *exploreModel {
	t.Helper()
	a := newApp(projectFs(t, nil))
	a.root = "/project"

	rt, err := a.runtime()
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	h, root, err := rt.NewResolver(resolver.Config{})
	require.NoError(t, err)
	return newExploreModel(rt, h, root)
}

func TestExplore_Resolve(t *testing.T) {
	m := newTestExplore(t)
	m.inputs[0].SetValue("./util")
	m.inputs[1].SetValue("src/main.ts")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m.Update(cmd())

	require.Len(t, m.history, 1)
	assert.NoError(t, m.history[0].err)
	assert.Equal(t, "src/util.ts", m.history[0].path)
	assert.Contains(t, m.View(), "src/util.ts")
}

func TestExplore_Error(t *testing.T) {
	m := newTestExplore(t)
	m.inputs[0].SetValue("./missing")

	m.Update(m.resolve())
	require.Len(t, m.history, 1)
	assert.Error(t, m.history[0].err)
	assert.Contains(t, m.View(), "./missing")
}

func TestExplore_EmptySpecifier(t *testing.T) {
	m := newTestExplore(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, m.history)
}

func TestExplore_Keys(t *testing.T) {
	m := newTestExplore(t)
	assert.Equal(t, resolver.Import, m.typ)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, resolver.Require, m.typ)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, resolver.Import, m.typ)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.focusIdx)
	assert.True(t, m.inputs[1].Focused())
	assert.False(t, m.inputs[0].Focused())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestExplore_HistoryBounded(t *testing.T) {
	m := newTestExplore(t)
	m.inputs[0].SetValue("fs")
	for range historySize + 3 {
		m.Update(m.resolve())
	}
	assert.Len(t, m.history, historySize)
	assert.Equal(t, "node:fs", m.history[0].path)
}

package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/alignx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoaded MsgKind = iota
	MsgSynced
	MsgPlaybackLoaded
	MsgProgressUpdate
	MsgTick
)

type loadResult struct {
	tasks  int
	assets int
	err    error
}

type playbackResult struct {
	playback *tasks.Playback
	err      error
}

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(nTasks, nAssets int, err error) Msg {
	return Msg{kind: MsgLoaded, data: loadResult{tasks: nTasks, assets: nAssets, err: err}}
}

// syncedMsg is the constructor for [MsgSynced]
func syncedMsg(n int, err error) Msg {
	return Msg{kind: MsgSynced, data: loadResult{tasks: n, err: err}}
}

// playbackLoadedMsg is the constructor for [MsgPlaybackLoaded]
func playbackLoadedMsg(pb *tasks.Playback, err error) Msg {
	return Msg{kind: MsgPlaybackLoaded, data: playbackResult{playback: pb, err: err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}

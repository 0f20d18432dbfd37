package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/alignx/internal/formatter"
	"github.com/desertthunder/alignx/internal/models"
	"github.com/desertthunder/alignx/internal/shared"
	"github.com/desertthunder/alignx/internal/tasks"
)

const (
	tickInterval = 100 * time.Millisecond
	seekStep     = 5.0
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AlignmentListView ViewState = iota
	AssetListView
	RelatedAssetsView
	RelatedAlignmentsView
	PreviewView
)

// Selections persists the last selected asset and alignment between sessions.
type Selections interface {
	LastAsset() string
	LastAlignment() string
	SetLastAsset(src string) error
	SetLastAlignment(taskID string) error
}

// Options configures a [Model].
type Options struct {
	Selections Selections
	SyncLimit  int
	Offline    bool // Skip the startup sync against the API
	Logger     *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	flow       *tasks.Workflow
	cache      *tasks.Reconciler
	opts       Options
	logger     *log.Logger
	width      int
	height     int
	alignments list.Model
	assets     list.Model
	related    list.Model
	relatedFor string
	previous   ViewState

	progressChan chan tasks.ProgressUpdate
	syncDone     chan Msg
	syncing      bool

	playback *tasks.Playback
	position float64
	playing  bool
	ticking  bool

	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model over a workflow and its cache.
func NewModel(ctx context.Context, flow *tasks.Workflow, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	m := &Model{
		ctx:        ctx,
		view:       AlignmentListView,
		flow:       flow,
		cache:      flow.Cache(),
		opts:       opts,
		logger:     logger,
		alignments: newList("Alignments"),
		assets:     newList("Demo Assets"),
		related:    newList("Related"),
		help:       help.New(),
		keys:       newKeyMap(),
	}
	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// ViewState returns the current view.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Init restores persisted alignments and loads the asset manifest.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.alignments, &m.assets, &m.related} {
			l.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLoaded:
		res := msg.data.(loadResult)
		m.refreshLists()
		if res.err != nil {
			m.setError(res.err)
		} else {
			m.status = fmt.Sprintf("Loaded %d alignments and %d demo assets", res.tasks, res.assets)
		}
		if m.opts.Offline {
			return m, nil
		}
		return m, m.startSync()

	case MsgSynced:
		res := msg.data.(loadResult)
		m.syncing = false
		m.progressChan, m.syncDone = nil, nil
		m.refreshLists()
		if res.err != nil {
			m.setError(fmt.Errorf("sync failed: %w", res.err))
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Synced %d alignments", res.tasks)
		return m, nil

	case MsgProgressUpdate:
		m.status = msg.data.(tasks.ProgressUpdate).Message
		return m, m.waitForProgress()

	case MsgPlaybackLoaded:
		res := msg.data.(playbackResult)
		if res.err != nil && !errors.Is(res.err, shared.ErrNoPlayableAudio) {
			m.setError(res.err)
			return m, nil
		}
		m.err = nil
		m.playback = res.playback
		m.position = 0
		m.previous = m.view
		m.view = PreviewView
		m.status = ""
		if res.err != nil {
			m.status = "No playable audio; lyrics only"
		}
		return m, m.play()

	case MsgTick:
		if m.view != PreviewView || !m.playing {
			m.ticking = false
			return m, nil
		}
		m.position += tickInterval.Seconds()
		if m.position > m.duration() {
			m.position = m.duration()
			m.playing = false
			m.ticking = false
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) && msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.view == PreviewView {
		return m.handlePreviewKeys(msg)
	}

	current := m.currentList()
	if current != nil && current.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.sync):
		if m.syncing {
			return m, nil
		}
		return m, m.startSync()
	}

	switch m.view {
	case AlignmentListView:
		return m.handleAlignmentListKeys(msg)
	case AssetListView:
		return m.handleAssetListKeys(msg)
	case RelatedAssetsView:
		return m.handleRelatedAssetsKeys(msg)
	case RelatedAlignmentsView:
		return m.handleRelatedAlignmentsKeys(msg)
	}
	return m.updateLists(msg)
}

func (m *Model) handleAlignmentListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.toggle):
		m.view = AssetListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if task, ok := selectedTask(m.alignments); ok {
			m.rememberAlignment(task.ID)
			return m, m.loadPlayback(task.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.related):
		if task, ok := selectedTask(m.alignments); ok {
			m.rememberAlignment(task.ID)
			m.showRelatedAssets(task.ID)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleAssetListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.toggle):
		m.view = AlignmentListView
		return m, nil
	case key.Matches(msg, m.keys.enter), key.Matches(msg, m.keys.related):
		if asset, ok := selectedAsset(m.assets); ok {
			m.rememberAsset(asset.Src)
			m.showRelatedAlignments(asset.Src)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleRelatedAssetsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = AlignmentListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if asset, ok := selectedAsset(m.related); ok {
			m.rememberAsset(asset.Src)
			m.status = fmt.Sprintf("Selected demo asset %s", formatter.AssetLabel(asset))
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleRelatedAlignmentsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = AssetListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if task, ok := selectedTask(m.related); ok {
			m.rememberAlignment(task.ID)
			return m, m.loadPlayback(task.ID)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handlePreviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.playing = false
		m.view = m.previous
		return m, nil
	case key.Matches(msg, m.keys.play):
		if m.playing {
			m.playing = false
			return m, nil
		}
		if m.position >= m.duration() {
			m.position = 0
		}
		return m, m.play()
	case key.Matches(msg, m.keys.seekB):
		m.position = max(m.position-seekStep, 0)
	case key.Matches(msg, m.keys.seekF):
		m.position = min(m.position+seekStep, m.duration())
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	current := m.currentList()
	if current == nil {
		return m, nil
	}
	var cmd tea.Cmd
	*current, cmd = current.Update(msg)
	return m, cmd
}

func (m *Model) currentList() *list.Model {
	switch m.view {
	case AlignmentListView:
		return &m.alignments
	case AssetListView:
		return &m.assets
	case RelatedAssetsView, RelatedAlignmentsView:
		return &m.related
	default:
		return nil
	}
}

// refreshLists rebuilds the alignment and asset lists, keeping the current (or last persisted) selection.
func (m *Model) refreshLists() {
	prevTask := ""
	if task, ok := selectedTask(m.alignments); ok {
		prevTask = task.ID
	} else if m.opts.Selections != nil {
		prevTask = m.opts.Selections.LastAlignment()
	}
	ranked := m.cache.RankedAlignments(prevTask)
	m.alignments.SetItems(alignmentItems(ranked.Items))
	if !ranked.Empty() {
		m.alignments.Select(ranked.ActiveIndex)
	}

	prevAsset := ""
	if asset, ok := selectedAsset(m.assets); ok {
		prevAsset = asset.Src
	} else if m.opts.Selections != nil {
		prevAsset = m.opts.Selections.LastAsset()
	}
	assets := m.cache.AssetList(prevAsset)
	m.assets.SetItems(assetItems(assets.Items))
	if !assets.Empty() {
		m.assets.Select(assets.ActiveIndex)
	}
}

func (m *Model) showRelatedAssets(taskID string) {
	p := m.cache.AssetsForTask(taskID, lastOr(m.opts.Selections, (Selections).LastAsset))
	m.related.SetItems(assetItems(p.Items))
	if !p.Empty() {
		m.related.Select(p.ActiveIndex)
	}
	m.related.Title = fmt.Sprintf("Demo assets for %s", taskID)
	m.relatedFor = taskID
	m.view = RelatedAssetsView
}

func (m *Model) showRelatedAlignments(src string) {
	p := m.cache.AlignmentsForAsset(src, lastOr(m.opts.Selections, (Selections).LastAlignment))
	m.related.SetItems(alignmentItems(p.Items))
	if !p.Empty() {
		m.related.Select(p.ActiveIndex)
	}
	m.related.Title = fmt.Sprintf("Alignments for %s", formatter.ShortFilename(src))
	m.relatedFor = src
	m.view = RelatedAlignmentsView
}

func (m *Model) rememberAlignment(id string) {
	if m.opts.Selections == nil {
		return
	}
	if err := m.opts.Selections.SetLastAlignment(id); err != nil {
		m.logger.Warn("could not save selection", "error", err)
	}
}

func (m *Model) rememberAsset(src string) {
	if m.opts.Selections == nil {
		return
	}
	if err := m.opts.Selections.SetLastAsset(src); err != nil {
		m.logger.Warn("could not save selection", "error", err)
	}
}

func (m *Model) setError(err error) {
	m.err = err
	m.logger.Error("tui", "error", err)
}

func (m *Model) duration() float64 {
	if m.playback == nil {
		return 0
	}
	return m.playback.Transcript.Duration()
}

func (m *Model) play() tea.Cmd {
	m.playing = true
	if m.ticking {
		return nil
	}
	m.ticking = true
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		n, err := m.flow.Restore()
		if err != nil {
			return loadedMsg(n, 0, err)
		}
		assets, err := m.flow.LoadAssets(m.ctx, nil)
		if errors.Is(err, shared.ErrMissingConfig) {
			err = nil
		}
		return loadedMsg(n, assets, err)
	}
}

func (m *Model) startSync() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan Msg, 1)
	m.progressChan, m.syncDone = progress, done
	m.syncing = true

	go func() {
		n, err := m.flow.Sync(m.ctx, m.opts.SyncLimit, progress)
		done <- syncedMsg(n, err)
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.syncDone
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) loadPlayback(id string) tea.Cmd {
	m.status = fmt.Sprintf("Loading alignment %s...", id)
	return func() tea.Msg {
		pb, err := m.flow.Load(m.ctx, id, "", nil)
		return playbackLoadedMsg(pb, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case AlignmentListView:
		body = m.renderList(m.alignments, "No alignments loaded", m.keys.enter, m.keys.related, m.keys.toggle, m.keys.sync, m.keys.quit)
	case AssetListView:
		body = m.renderList(m.assets, "No demo assets loaded", m.keys.enter, m.keys.toggle, m.keys.sync, m.keys.quit)
	case RelatedAssetsView:
		body = m.renderList(m.related, "No associated demo assets", m.keys.enter, m.keys.back, m.keys.quit)
	case RelatedAlignmentsView:
		body = m.renderList(m.related, "No alignments for this asset", m.keys.enter, m.keys.back, m.keys.quit)
	case PreviewView:
		body = m.renderPreview()
	}
	return fmt.Sprintf("%s\n%s", body, m.renderStatus())
}

func (m *Model) renderList(l list.Model, empty string, bindings ...key.Binding) string {
	helpView := m.help.ShortHelpView(bindings)
	if len(l.Items()) == 0 {
		return fmt.Sprintf("%s\n%s\n\n%s", styles.title.Render(l.Title), styles.help.Render(empty), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", l.View(), helpView)
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.status != "" {
		return styles.help.Render(m.status)
	}
	return ""
}

func (m *Model) renderPreview() string {
	if m.playback == nil {
		return styles.err.Render("Nothing loaded")
	}

	task := m.playback.Task
	name := firstNonEmpty(task.AssetTitle, formatter.ShortFilename(firstNonEmpty(task.AudioURL(), task.ValidSrc)))
	title := styles.title.Render(name)

	audio := styles.warn.Render("no playable audio")
	if m.playback.AudioURL != "" {
		audio = formatter.ShortFilename(m.playback.AudioURL)
	}

	state := "▶"
	if !m.playing {
		state = "⏸"
	}
	clock := fmt.Sprintf("%s %s / %s", state, clockLabel(m.position), clockLabel(m.duration()))

	lines := formatter.RenderKaraoke(m.playback.Transcript, m.position, func(s string) string {
		return styles.active.Render(s)
	})
	lyrics := strings.Join(window(lines, m.activeLine(), m.lyricRows()), "\n")

	helpKeys := []key.Binding{m.keys.play, m.keys.seekB, m.keys.seekF, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s • %s • %s\n\n%s\n\n%s",
		title, task.ID, audio, clock, lyrics, m.help.ShortHelpView(helpKeys))
}

func (m *Model) activeLine() int {
	if m.playback.Transcript == nil {
		return 0
	}
	if pos, ok := formatter.ActiveWord(m.playback.Transcript, m.position); ok {
		return pos.Line
	}
	for i, line := range m.playback.Transcript.Lines {
		if len(line.Words) > 0 && line.Start() > m.position {
			return i
		}
	}
	return 0
}

func (m *Model) lyricRows() int {
	if m.height <= 12 {
		return 10
	}
	return m.height - 10
}

// window returns at most rows lines with center near the middle.
func window(lines []string, center, rows int) []string {
	if len(lines) <= rows {
		return lines
	}
	start := max(center-rows/2, 0)
	end := min(start+rows, len(lines))
	start = max(end-rows, 0)
	return lines[start:end]
}

func clockLabel(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func selectedTask(l list.Model) (*models.Task, bool) {
	if item, ok := l.SelectedItem().(alignmentItem); ok {
		return item.task, true
	}
	return nil, false
}

func selectedAsset(l list.Model) (models.Asset, bool) {
	if item, ok := l.SelectedItem().(assetItem); ok {
		return item.asset, true
	}
	return models.Asset{}, false
}

func lastOr(s Selections, get func(Selections) string) string {
	if s == nil {
		return ""
	}
	return get(s)
}

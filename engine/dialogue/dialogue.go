// Package dialogue implements NPC line selection: gated one-time rewards,
// unseen-first random picks without immediate repeats, and rewards that are
// granted only once the line has been dismissed.
//
// A Manager is not safe for concurrent use. Callers that share one across
// goroutines must serialise access themselves.
package dialogue

import (
	"crypto/rand"
	"log/slog"
	mrand "math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/nathoo/questline/engine/catalog"
	"github.com/nathoo/questline/errutil"
	"github.com/nathoo/questline/types"
)

// Failure codes logged when a start request is dropped.
const (
	CodeEmptyID         = "DIALOGUE_EMPTY_ID"
	CodeAlreadyOpen     = "DIALOGUE_ALREADY_OPEN"
	CodeUnknownID       = "DIALOGUE_UNKNOWN_ID"
	CodeEmptyDialogue   = "DIALOGUE_EMPTY"
	CodeNoEligibleLine  = "DIALOGUE_NO_ELIGIBLE_LINE"
	CodeNoPresenter     = "DIALOGUE_NO_PRESENTER"
	CodeInvalidSelected = "DIALOGUE_INVALID_SELECTION"
)

// Presenter shows a line of text until it is dismissed.
// Hide must invoke the callback registered by Show exactly once, then forget it.
type Presenter interface {
	Show(text string, onFinished func())
	Hide()
	SetHint(text string)
}

// RewardSink receives granted reward items.
type RewardSink interface {
	Grant(itemID string)
}

// Prompt is the "press to interact" prompt, hidden while a line is shown.
type Prompt interface {
	HidePrompt()
	ShowPromptIfFocused()
}

// HintSource resolves the display string of the continue input, e.g. "E".
type HintSource interface {
	ContinueHint() (string, bool)
}

// RNG picks a uniform index in [0, n).
type RNG interface {
	Intn(n int) int
}

// Observer is told about dialogue activity. Used for metrics.
type Observer interface {
	DialogueOpened(dialogueID string, line int, session string)
	DialogueDropped(dialogueID, code string)
	RewardGranted(dialogueID, itemID string)
}

// progress is the runtime state for one dialogue ID.
type progress struct {
	shown      map[int]bool
	consumed   map[int]bool
	lastChosen int
	hasLast    bool
}

// pendingReward is a reward staged at selection and granted on close.
type pendingReward struct {
	ItemID     string
	DialogueID string
	Line       int
}

// Manager owns per-dialogue progress and the open/close session.
type Manager struct {
	catalog   *catalog.Catalog
	presenter Presenter
	rewards   RewardSink
	prompt    Prompt
	hint      HintSource
	rng       RNG
	observer  Observer
	logger    *slog.Logger

	progress map[string]*progress
	open     bool
	session  string
	pending  *pendingReward
}

// Option configures a Manager.
type Option func(*Manager)

// WithPresenter sets the presentation sink. Without one, StartDialogue never opens.
func WithPresenter(p Presenter) Option { return func(m *Manager) { m.presenter = p } }

// WithRewards sets where reward items go.
func WithRewards(r RewardSink) Option { return func(m *Manager) { m.rewards = r } }

// WithPrompt sets the interaction prompt collaborator.
func WithPrompt(p Prompt) Option { return func(m *Manager) { m.prompt = p } }

// WithHint sets the continue-hint source.
func WithHint(h HintSource) Option { return func(m *Manager) { m.hint = h } }

// WithRNG sets the random source used for line picks.
func WithRNG(r RNG) Option { return func(m *Manager) { m.rng = r } }

// WithObserver sets an activity observer.
func WithObserver(o Observer) Option { return func(m *Manager) { m.observer = o } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// New creates a Manager over the given catalog.
func New(c *catalog.Catalog, opts ...Option) *Manager {
	m := &Manager{
		catalog:  c,
		logger:   slog.Default(),
		progress: map[string]*progress{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = defaultRNG{}
	}
	return m
}

// IsOpen reports whether a line is currently shown.
func (m *Manager) IsOpen() bool { return m.open }

// StartDialogue picks a line for the dialogue and opens it. Requests that
// cannot be served are logged and dropped; the return value reports whether
// a line was opened.
func (m *Manager) StartDialogue(id string) bool {
	m.logger.Debug("start dialogue requested", "dialogue_id", id, "open", m.open)

	err := m.start(id)
	if err == nil {
		return true
	}

	code := errutil.Code(err)
	if code == CodeAlreadyOpen {
		m.logger.Debug("dialogue request dropped", errutil.Attrs(err)...)
	} else {
		errutil.LogWarn(m.logger, "dialogue request dropped", err)
	}
	if m.observer != nil {
		m.observer.DialogueDropped(id, code)
	}
	return false
}

func (m *Manager) start(id string) error {
	errb := oops.With("dialogue_id", id)

	if id == "" {
		return errb.Code(CodeEmptyID).Errorf("start dialogue called with empty id")
	}
	if m.open {
		return errb.Code(CodeAlreadyOpen).Errorf("a dialogue is already open")
	}

	def, ok := m.catalog.Find(id)
	if !ok {
		return errb.Code(CodeUnknownID).Errorf("no dialogue definition for id %q", id)
	}
	if len(def.Lines) == 0 {
		return errb.Code(CodeEmptyDialogue).Errorf("dialogue %q has no lines", id)
	}

	chosen, ok := m.ChooseLineIndex(def, id)
	if !ok {
		return errb.Code(CodeNoEligibleLine).Errorf("dialogue %q has no eligible lines (all consumed or gated)", id)
	}
	if chosen < 0 || chosen >= len(def.Lines) {
		return errb.Code(CodeInvalidSelected).With("line", chosen).Errorf("chose out-of-range line %d", chosen)
	}

	line := def.Lines[chosen]
	m.logger.Debug("dialogue line chosen", "dialogue_id", id, "line", chosen, "reward", line.OneTimeReward)

	if m.presenter == nil {
		return errb.Code(CodeNoPresenter).Errorf("no presenter configured, cannot show dialogue")
	}

	p := m.progressFor(id)
	p.shown[chosen] = true
	p.lastChosen = chosen
	p.hasLast = true

	if line.OneTimeReward && line.RewardItem != "" && !p.consumed[chosen] {
		m.pending = &pendingReward{ItemID: line.RewardItem, DialogueID: id, Line: chosen}
	}

	if session, ok := m.present(line.Text); ok && m.observer != nil {
		m.observer.DialogueOpened(id, chosen, session)
	}
	return nil
}

// ChooseLineIndex selects the next line for a dialogue without mutating any
// state. It returns false when no line is eligible.
//
// Reward lines stay locked until every normal line has been shown at least
// once; a dialogue with no normal lines therefore never unlocks its rewards.
// Unseen candidates are preferred over seen ones, and among several the
// previously chosen line is skipped.
func (m *Manager) ChooseLineIndex(def types.DialogueDefinition, id string) (int, bool) {
	p := m.progressFor(id)

	var normal, reward []int
	for i, line := range def.Lines {
		if line.OneTimeReward {
			if !p.consumed[i] {
				reward = append(reward, i)
			}
			continue
		}
		normal = append(normal, i)
	}

	m.logger.Debug("dialogue candidates",
		"dialogue_id", id, "normals", len(normal), "rewards", len(reward), "shown", len(p.shown))

	candidates := append([]int(nil), normal...)
	if len(reward) > 0 && allShown(normal, p.shown) {
		candidates = append(candidates, reward...)
	}
	if len(candidates) == 0 {
		return -1, false
	}

	var unseen, seen []int
	for _, idx := range candidates {
		if p.shown[idx] {
			seen = append(seen, idx)
		} else {
			unseen = append(unseen, idx)
		}
	}

	pool := seen
	if len(unseen) > 0 {
		pool = unseen
	}
	if len(pool) == 1 {
		return pool[0], true
	}

	filtered := make([]int, 0, len(pool))
	for _, idx := range pool {
		if !p.hasLast || idx != p.lastChosen {
			filtered = append(filtered, idx)
		}
	}
	if len(filtered) > 0 {
		pool = filtered
	}

	return pool[m.rng.Intn(len(pool))], true
}

// allShown reports whether every index is in shown. An empty list is never
// considered shown.
func allShown(indices []int, shown map[int]bool) bool {
	if len(indices) == 0 {
		return false
	}
	for _, idx := range indices {
		if !shown[idx] {
			return false
		}
	}
	return true
}

// Open presents text and marks the dialogue open. Empty text is ignored.
func (m *Manager) Open(text string) bool {
	_, ok := m.present(text)
	return ok
}

// present opens text and returns the session id it was opened under. The id
// is captured before Show, which may finish the dialogue synchronously.
func (m *Manager) present(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	if m.presenter == nil {
		m.logger.Warn("no presenter configured, cannot open dialogue")
		return "", false
	}

	session := newSessionID()
	m.open = true
	m.session = session
	m.logger.Info("dialogue opened", "session", session)

	if disp := m.continueHint(); disp != "" {
		m.presenter.SetHint("Press " + disp + " to continue")
	}
	m.presenter.Show(text, m.OnDialogueFinished)
	if m.prompt != nil {
		m.prompt.HidePrompt()
	}
	return session, true
}

// continueHint asks the hint source for a display string. Failures,
// including panics, mean no hint.
func (m *Manager) continueHint() (disp string) {
	if m.hint == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Debug("continue hint unavailable", "panic", r)
			disp = ""
		}
	}()
	s, ok := m.hint.ContinueHint()
	if !ok {
		return ""
	}
	return s
}

// RequestCloseDialogue is called when the dismiss input fires while a line is shown.
func (m *Manager) RequestCloseDialogue() {
	m.Close()
}

// Close hides the presenter, which in turn fires OnDialogueFinished.
func (m *Manager) Close() {
	if !m.open {
		return
	}
	m.open = false
	m.presenter.Hide()
}

// OnDialogueFinished runs once the presenter has been hidden. It grants the
// staged reward, if any, and otherwise brings the interaction prompt back.
func (m *Manager) OnDialogueFinished() {
	m.open = false

	granted := false
	if pr := m.pending; pr != nil && pr.ItemID != "" && pr.DialogueID != "" && pr.Line >= 0 {
		p := m.progressFor(pr.DialogueID)
		if !p.consumed[pr.Line] {
			if m.rewards != nil {
				m.rewards.Grant(pr.ItemID)
			}
			p.consumed[pr.Line] = true
			granted = true
			m.logger.Info("dialogue reward granted",
				"dialogue_id", pr.DialogueID, "line", pr.Line, "item", pr.ItemID, "session", m.session)
			if m.observer != nil {
				m.observer.RewardGranted(pr.DialogueID, pr.ItemID)
			}
		}
	}
	m.pending = nil
	m.session = ""

	if !granted && m.prompt != nil {
		m.prompt.ShowPromptIfFocused()
	}
}

func (m *Manager) progressFor(id string) *progress {
	p, ok := m.progress[id]
	if !ok {
		p = &progress{shown: map[int]bool{}, consumed: map[int]bool{}}
		m.progress[id] = p
	}
	return p
}

// Shown returns the line indices ever selected for a dialogue, ascending.
func (m *Manager) Shown(id string) []int {
	p, ok := m.progress[id]
	if !ok {
		return nil
	}
	return sortedKeys(p.shown)
}

// Consumed returns the reward line indices already granted, ascending.
func (m *Manager) Consumed(id string) []int {
	p, ok := m.progress[id]
	if !ok {
		return nil
	}
	return sortedKeys(p.consumed)
}

// LastChosen returns the most recently selected line for a dialogue.
func (m *Manager) LastChosen(id string) (int, bool) {
	p, ok := m.progress[id]
	if !ok || !p.hasLast {
		return -1, false
	}
	return p.lastChosen, true
}

// Pending returns the staged reward item, its dialogue and line.
func (m *Manager) Pending() (itemID, dialogueID string, line int, ok bool) {
	if m.pending == nil {
		return "", "", -1, false
	}
	return m.pending.ItemID, m.pending.DialogueID, m.pending.Line, true
}

// Session returns the ULID of the open dialogue, or "" when closed.
func (m *Manager) Session() string { return m.session }

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// defaultRNG is used when no RNG option is given.
type defaultRNG struct{}

func (defaultRNG) Intn(n int) int { return mrand.IntN(n) }

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

func newSessionID() string {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

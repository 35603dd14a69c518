package dialogue

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/questline/engine/catalog"
	"github.com/nathoo/questline/errutil"
	"github.com/nathoo/questline/logging"
	"github.com/nathoo/questline/types"
)

// fakePresenter records calls and fires the finished callback on Hide.
type fakePresenter struct {
	shown    []string
	hints    []string
	hides    int
	visible  bool
	finished func()
	// closeOnShow hides synchronously from inside Show.
	closeOnShow bool
}

func (p *fakePresenter) Show(text string, onFinished func()) {
	p.shown = append(p.shown, text)
	p.finished = onFinished
	p.visible = true
	if p.closeOnShow {
		p.Hide()
	}
}

func (p *fakePresenter) Hide() {
	p.hides++
	p.visible = false
	cb := p.finished
	p.finished = nil
	if cb != nil {
		cb()
	}
}

func (p *fakePresenter) SetHint(text string) { p.hints = append(p.hints, text) }

type fakeRewards struct{ granted []string }

func (r *fakeRewards) Grant(itemID string) { r.granted = append(r.granted, itemID) }

type fakePrompt struct{ hidden, reshown int }

func (p *fakePrompt) HidePrompt()          { p.hidden++ }
func (p *fakePrompt) ShowPromptIfFocused() { p.reshown++ }

type fakeHint struct {
	disp  string
	ok    bool
	panic bool
}

func (h fakeHint) ContinueHint() (string, bool) {
	if h.panic {
		panic("binding lookup exploded")
	}
	return h.disp, h.ok
}

// seqRNG returns scripted values, clamped into range.
type seqRNG struct {
	vals []int
	i    int
}

func (r *seqRNG) Intn(n int) int {
	if len(r.vals) == 0 {
		return 0
	}
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

type fakeObserver struct {
	opened  []string
	dropped []string
	granted []string
}

func (o *fakeObserver) DialogueOpened(id string, _ int, session string) {
	o.opened = append(o.opened, id+"@"+session)
}
func (o *fakeObserver) DialogueDropped(id, code string) { o.dropped = append(o.dropped, code) }
func (o *fakeObserver) RewardGranted(id, item string)   { o.granted = append(o.granted, id+":"+item) }

func merchantDef() types.DialogueDefinition {
	return types.DialogueDefinition{
		ID: "merchant",
		Lines: []types.DialogueLine{
			{Text: "Fine wares today."},
			{Text: "Mind the roads after dark."},
			{Text: "Take this, friend.", OneTimeReward: true, RewardItem: "potion"},
		},
	}
}

type harness struct {
	m         *Manager
	presenter *fakePresenter
	rewards   *fakeRewards
	prompt    *fakePrompt
}

func newHarness(t *testing.T, rng RNG, defs ...types.DialogueDefinition) *harness {
	t.Helper()
	h := &harness{presenter: &fakePresenter{}, rewards: &fakeRewards{}, prompt: &fakePrompt{}}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	h.m = New(catalog.New(defs...),
		WithPresenter(h.presenter),
		WithRewards(h.rewards),
		WithPrompt(h.prompt),
		WithRNG(rng),
		WithLogger(logging.Discard()),
	)
	return h
}

func (h *harness) startAndClose(t *testing.T, id string) int {
	t.Helper()
	require.True(t, h.m.StartDialogue(id), "StartDialogue(%q) should open", id)
	line, ok := h.m.LastChosen(id)
	require.True(t, ok)
	h.m.RequestCloseDialogue()
	require.False(t, h.m.IsOpen())
	return line
}

func TestMerchantScenario(t *testing.T) {
	h := newHarness(t, nil, merchantDef())

	first := h.startAndClose(t, "merchant")
	second := h.startAndClose(t, "merchant")
	assert.ElementsMatch(t, []int{0, 1}, []int{first, second}, "both normal lines before anything else")
	assert.Empty(t, h.rewards.granted)

	third := h.startAndClose(t, "merchant")
	assert.Equal(t, 2, third, "reward line unlocks once all normals were shown")
	assert.Equal(t, []string{"potion"}, h.rewards.granted)
	assert.Equal(t, []int{2}, h.m.Consumed("merchant"))

	fourth := h.startAndClose(t, "merchant")
	assert.Contains(t, []int{0, 1}, fourth)
	assert.Equal(t, []string{"potion"}, h.rewards.granted, "reward is never granted twice")
}

func TestGating_RewardNeverBeforeAllNormalsShown(t *testing.T) {
	def := types.DialogueDefinition{
		ID: "sage",
		Lines: []types.DialogueLine{
			{Text: "a"},
			{Text: "gift", OneTimeReward: true, RewardItem: "scroll"},
			{Text: "b"},
			{Text: "c"},
		},
	}
	for seed := int64(0); seed < 50; seed++ {
		h := newHarness(t, rand.New(rand.NewSource(seed)), def)
		for i := 0; i < 3; i++ {
			line := h.startAndClose(t, "sage")
			assert.NotEqual(t, 1, line, "seed %d step %d: reward chosen before normals were shown", seed, i)
		}
		assert.Equal(t, 1, h.startAndClose(t, "sage"), "seed %d: reward is the only unseen candidate", seed)
	}
}

func TestGating_AllRewardDialogueIsUnreachable(t *testing.T) {
	def := types.DialogueDefinition{
		ID:    "chest_spirit",
		Lines: []types.DialogueLine{{Text: "gift", OneTimeReward: true, RewardItem: "gem"}},
	}
	h := newHarness(t, nil, def)

	err := h.m.start("chest_spirit")
	errutil.AssertErrorCode(t, err, CodeNoEligibleLine)
	assert.Empty(t, h.presenter.shown)
}

func TestSingleConsumption_AcrossManyStarts(t *testing.T) {
	h := newHarness(t, nil, merchantDef())
	for i := 0; i < 40; i++ {
		h.startAndClose(t, "merchant")
	}
	assert.Equal(t, []string{"potion"}, h.rewards.granted)
}

func TestNoEligibleCandidates_NoMutation(t *testing.T) {
	def := types.DialogueDefinition{
		ID:    "hermit",
		Lines: []types.DialogueLine{{Text: "gift", OneTimeReward: true, RewardItem: "map"}},
	}
	h := newHarness(t, nil, def)

	assert.False(t, h.m.StartDialogue("hermit"))
	assert.Empty(t, h.m.Shown("hermit"))
	_, ok := h.m.LastChosen("hermit")
	assert.False(t, ok)
	assert.False(t, h.m.IsOpen())
	assert.Empty(t, h.presenter.shown)
}

func TestNoEligibleCandidates_AfterEverythingConsumed(t *testing.T) {
	// Normal lines never stop being eligible, so the only way to run dry is
	// a dialogue whose rewards have all been consumed.
	def := types.DialogueDefinition{
		ID: "twins",
		Lines: []types.DialogueLine{
			{Text: "one", OneTimeReward: true, RewardItem: "a"},
			{Text: "two", OneTimeReward: true, RewardItem: "b"},
		},
	}
	h := newHarness(t, nil, def)
	p := h.m.progressFor("twins")
	p.consumed[0] = true
	p.consumed[1] = true

	assert.False(t, h.m.StartDialogue("twins"))
	assert.Empty(t, h.m.Shown("twins"))
	assert.Empty(t, h.presenter.shown)
}

func TestRepeatAvoidance(t *testing.T) {
	def := types.DialogueDefinition{
		ID:    "guard",
		Lines: []types.DialogueLine{{Text: "halt"}, {Text: "move along"}, {Text: "nice weather"}},
	}
	h := newHarness(t, nil, def)

	// Exhaust unseen lines first.
	for i := 0; i < 3; i++ {
		h.startAndClose(t, "guard")
	}
	for i := 0; i < 100; i++ {
		last, _ := h.m.LastChosen("guard")
		next := h.startAndClose(t, "guard")
		require.NotEqual(t, last, next, "iteration %d repeated line %d", i, last)
	}
}

func TestRepeatAvoidance_FilterIgnoredWhenLastNotInPool(t *testing.T) {
	// Always pick the first element of the final pool.
	h := newHarness(t, &seqRNG{vals: []int{0}}, merchantDef())

	assert.Equal(t, 0, h.startAndClose(t, "merchant"))
	assert.Equal(t, 1, h.startAndClose(t, "merchant"))
	assert.Equal(t, 2, h.startAndClose(t, "merchant"))
	// Pool is {0, 1}; last chosen (2) is not in it, so index 0 is allowed.
	assert.Equal(t, 0, h.startAndClose(t, "merchant"))
	// Now last chosen is 0 and must be skipped.
	assert.Equal(t, 1, h.startAndClose(t, "merchant"))
}

func TestForcedRepeat_SingleCandidate(t *testing.T) {
	def := types.DialogueDefinition{ID: "parrot", Lines: []types.DialogueLine{{Text: "squawk"}}}
	h := newHarness(t, nil, def)

	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, h.startAndClose(t, "parrot"))
	}
	assert.Equal(t, []string{"squawk", "squawk", "squawk", "squawk", "squawk"}, h.presenter.shown)
}

func TestNoOverlap_StartWhileOpenIsDropped(t *testing.T) {
	other := types.DialogueDefinition{ID: "guard", Lines: []types.DialogueLine{{Text: "halt"}}}
	h := newHarness(t, nil, merchantDef(), other)

	require.True(t, h.m.StartDialogue("merchant"))
	shownBefore := h.m.Shown("merchant")
	lastBefore, _ := h.m.LastChosen("merchant")

	err := h.m.start("guard")
	errutil.AssertErrorCode(t, err, CodeAlreadyOpen)
	assert.False(t, h.m.StartDialogue("merchant"))

	assert.Equal(t, shownBefore, h.m.Shown("merchant"))
	lastAfter, _ := h.m.LastChosen("merchant")
	assert.Equal(t, lastBefore, lastAfter)
	assert.Empty(t, h.m.Shown("guard"))
	assert.Len(t, h.presenter.shown, 1, "a second presentation must never open")
}

func TestDeferredReward_GrantedOnlyOnClose(t *testing.T) {
	def := types.DialogueDefinition{
		ID: "smith",
		Lines: []types.DialogueLine{
			{Text: "Hot forge."},
			{Text: "Here, a blade.", OneTimeReward: true, RewardItem: "sword"},
		},
	}
	h := newHarness(t, nil, def)
	h.startAndClose(t, "smith")

	require.True(t, h.m.StartDialogue("smith"))
	item, dialogueID, line, ok := h.m.Pending()
	require.True(t, ok)
	assert.Equal(t, "sword", item)
	assert.Equal(t, "smith", dialogueID)
	assert.Equal(t, 1, line)
	assert.Empty(t, h.rewards.granted, "nothing is granted at selection time")
	assert.Empty(t, h.m.Consumed("smith"))

	h.m.RequestCloseDialogue()
	assert.Equal(t, []string{"sword"}, h.rewards.granted)
	_, _, _, ok = h.m.Pending()
	assert.False(t, ok)
}

func TestDeferredReward_ImmediateHideInsideShow(t *testing.T) {
	def := types.DialogueDefinition{
		ID: "ghost",
		Lines: []types.DialogueLine{
			{Text: "Boo."},
			{Text: "Take my ring.", OneTimeReward: true, RewardItem: "ring"},
		},
	}
	h := newHarness(t, nil, def)
	h.presenter.closeOnShow = true

	assert.True(t, h.m.StartDialogue("ghost"))
	assert.False(t, h.m.IsOpen())
	assert.Empty(t, h.rewards.granted)

	assert.True(t, h.m.StartDialogue("ghost"))
	assert.Equal(t, []string{"ring"}, h.rewards.granted, "granted by the finished callback")
	assert.Equal(t, []int{1}, h.m.Consumed("ghost"))
}

func TestPromptHandling(t *testing.T) {
	h := newHarness(t, nil, merchantDef())

	h.startAndClose(t, "merchant")
	assert.Equal(t, 1, h.prompt.hidden)
	assert.Equal(t, 1, h.prompt.reshown, "prompt comes back after a plain line")

	h.startAndClose(t, "merchant")
	h.startAndClose(t, "merchant") // reward line
	assert.Equal(t, 3, h.prompt.hidden)
	assert.Equal(t, 2, h.prompt.reshown, "reward close leaves the prompt to the collected UI")
}

func TestGuards(t *testing.T) {
	empty := types.DialogueDefinition{ID: "mute"}
	h := newHarness(t, nil, merchantDef(), empty)

	errutil.AssertErrorCode(t, h.m.start(""), CodeEmptyID)
	errutil.AssertErrorCode(t, h.m.start("nobody"), CodeUnknownID)
	errutil.AssertErrorCode(t, h.m.start("mute"), CodeEmptyDialogue)
	errutil.AssertErrorContext(t, h.m.start("nobody"), "dialogue_id", "nobody")
	assert.Empty(t, h.presenter.shown)
}

func TestGuard_MissingPresenter(t *testing.T) {
	m := New(catalog.New(merchantDef()), WithLogger(logging.Discard()))

	errutil.AssertErrorCode(t, m.start("merchant"), CodeNoPresenter)
	assert.Empty(t, m.Shown("merchant"), "no state changes without a presenter")
	assert.False(t, m.IsOpen())
}

func TestOpen_EmptyTextIsNoop(t *testing.T) {
	h := newHarness(t, nil)
	assert.False(t, h.m.Open(""))
	assert.False(t, h.m.IsOpen())
	assert.Empty(t, h.presenter.shown)
}

func TestClose_WhenNotOpenIsNoop(t *testing.T) {
	h := newHarness(t, nil)
	h.m.Close()
	h.m.RequestCloseDialogue()
	assert.Zero(t, h.presenter.hides)
}

func TestContinueHint(t *testing.T) {
	p := &fakePresenter{}
	m := New(catalog.New(merchantDef()),
		WithPresenter(p), WithHint(fakeHint{disp: "E", ok: true}), WithLogger(logging.Discard()))
	require.True(t, m.StartDialogue("merchant"))
	assert.Equal(t, []string{"Press E to continue"}, p.hints)
}

func TestContinueHint_FailuresAreSwallowed(t *testing.T) {
	for name, hint := range map[string]fakeHint{
		"absent": {ok: false},
		"empty":  {disp: "", ok: true},
		"panics": {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			p := &fakePresenter{}
			m := New(catalog.New(merchantDef()),
				WithPresenter(p), WithHint(hint), WithLogger(logging.Discard()))
			require.True(t, m.StartDialogue("merchant"))
			assert.Empty(t, p.hints)
			assert.Len(t, p.shown, 1)
		})
	}
}

func TestObserverAndSession(t *testing.T) {
	obs := &fakeObserver{}
	h := newHarness(t, nil, merchantDef())
	h.m.observer = obs

	require.True(t, h.m.StartDialogue("merchant"))
	session := h.m.Session()
	assert.Len(t, session, 26, "sessions are ULIDs")
	h.m.RequestCloseDialogue()
	assert.Empty(t, h.m.Session())

	h.m.StartDialogue("nobody")
	h.startAndClose(t, "merchant")
	h.startAndClose(t, "merchant")

	require.Len(t, obs.opened, 3)
	assert.Equal(t, "merchant@"+session, obs.opened[0])
	assert.Equal(t, []string{CodeUnknownID}, obs.dropped)
	assert.Equal(t, []string{"merchant:potion"}, obs.granted)
}

func TestObserver_SessionSurvivesSynchronousHide(t *testing.T) {
	obs := &fakeObserver{}
	h := newHarness(t, nil, merchantDef())
	h.m.observer = obs
	h.presenter.closeOnShow = true

	require.True(t, h.m.StartDialogue("merchant"))
	assert.False(t, h.m.IsOpen())
	assert.Empty(t, h.m.Session())

	require.Len(t, obs.opened, 1)
	session := strings.TrimPrefix(obs.opened[0], "merchant@")
	assert.Len(t, session, 26, "observer gets the ULID the line opened under")
}

func TestProgressIsPerDialogue(t *testing.T) {
	other := types.DialogueDefinition{
		ID: "guard",
		Lines: []types.DialogueLine{
			{Text: "halt"},
			{Text: "coin", OneTimeReward: true, RewardItem: "coin"},
		},
	}
	h := newHarness(t, nil, merchantDef(), other)

	h.startAndClose(t, "merchant")
	h.startAndClose(t, "merchant")
	assert.Len(t, h.m.Shown("merchant"), 2)
	assert.Empty(t, h.m.Shown("guard"))

	assert.Equal(t, 0, h.startAndClose(t, "guard"))
	assert.Equal(t, 1, h.startAndClose(t, "guard"))
	assert.Equal(t, []string{"coin"}, h.rewards.granted)
}

func TestChooseLineIndex_UniformAmongFiltered(t *testing.T) {
	def := types.DialogueDefinition{
		ID:    "bard",
		Lines: []types.DialogueLine{{Text: "a"}, {Text: "b"}, {Text: "c"}},
	}
	h := newHarness(t, rand.New(rand.NewSource(7)), def)
	p := h.m.progressFor("bard")
	for i := range def.Lines {
		p.shown[i] = true
	}
	p.lastChosen, p.hasLast = 1, true

	counts := map[int]int{}
	for i := 0; i < 3000; i++ {
		idx, ok := h.m.ChooseLineIndex(def, "bard")
		require.True(t, ok)
		counts[idx]++
	}
	assert.Zero(t, counts[1])
	assert.InDelta(t, 1500, counts[0], 200)
	assert.InDelta(t, 1500, counts[2], 200)
}

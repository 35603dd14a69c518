// Package engine provides the Step() orchestrator that wires together
// parsing, name resolution, focus, dialogue, inventory and UI state into a
// single turn of the text harness.
//
// An Engine is safe for concurrent use: every exported method takes the
// engine lock, so the front ends can share one.
package engine

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/nathoo/questline/engine/binding"
	"github.com/nathoo/questline/engine/dialogue"
	"github.com/nathoo/questline/engine/events"
	"github.com/nathoo/questline/engine/interaction"
	"github.com/nathoo/questline/engine/inventory"
	"github.com/nathoo/questline/engine/parser"
	"github.com/nathoo/questline/engine/resolve"
	"github.com/nathoo/questline/engine/state"
	"github.com/nathoo/questline/engine/ui"
	"github.com/nathoo/questline/types"
)

// InventoryObserver is told about inventory activity. Used for metrics.
type InventoryObserver interface {
	ItemCollected(itemID string)
	ItemUsed(itemID string, category types.Category)
}

type options struct {
	seed       int64
	capacity   int
	toastSteps int
	interact   binding.Action
	observer   dialogue.Observer
	invObs     InventoryObserver
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithSeed seeds the line-selection RNG.
func WithSeed(seed int64) Option { return func(o *options) { o.seed = seed } }

// WithCapacity sets the inventory slot count per category.
func WithCapacity(n int) Option { return func(o *options) { o.capacity = n } }

// WithToastSteps sets how many steps the collected toast stays up.
func WithToastSteps(n int) Option { return func(o *options) { o.toastSteps = n } }

// WithInteractAction overrides the interact input bindings.
func WithInteractAction(a binding.Action) Option { return func(o *options) { o.interact = a } }

// WithDialogueObserver forwards dialogue activity to obs.
func WithDialogueObserver(obs dialogue.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithInventoryObserver forwards inventory activity to obs.
func WithInventoryObserver(obs InventoryObserver) Option {
	return func(o *options) { o.invObs = obs }
}

// WithLogger sets the logger shared by every subsystem.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// Engine holds the game definitions, the subsystems and the scene state.
type Engine struct {
	mu sync.Mutex

	Defs  *state.Defs
	State *types.State
	RNG   *RNG

	dialogue    *dialogue.Manager
	interaction *interaction.Manager
	inventory   *inventory.Inventory
	bindings    *binding.Resolver

	blocker *ui.Blocker
	panel   *ui.DialoguePanel
	prompt  *ui.PromptPanel
	toast   *ui.CollectedToast

	elements map[string]interaction.Interactable
	rec      *events.Recorder
	speaker  string
	invObs   InventoryObserver
	log      *slog.Logger
}

// New creates an engine from definitions.
func New(defs *state.Defs, opts ...Option) (*Engine, error) {
	o := options{
		capacity:   inventory.DefaultCapacity,
		toastSteps: ui.DefaultToastSteps,
		interact:   binding.DefaultInteract(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := state.NewState(defs)
	s.RNGSeed = o.seed
	e := &Engine{
		Defs:     defs,
		State:    s,
		RNG:      NewRNG(o.seed),
		bindings: binding.NewResolver(o.interact),
		blocker:  &ui.Blocker{},
		prompt:   &ui.PromptPanel{},
		elements: map[string]interaction.Interactable{},
		rec:      events.NewRecorder(),
		invObs:   o.invObs,
		log:      o.logger,
	}
	e.panel = ui.NewDialoguePanel(e.blocker)
	e.toast = ui.NewCollectedToast(e.blocker, o.toastSteps, func() {
		e.interaction.ShowPromptIfFocused()
	})

	e.inventory = inventory.New(defs.Items,
		inventory.WithCapacity(o.capacity),
		inventory.WithLogger(o.logger),
	)
	e.interaction = interaction.New(
		interaction.WithPrompt(e.prompt),
		interaction.WithToast(e.toast),
		interaction.WithBlocker(e.blocker),
		interaction.WithGranter(e.inventory),
		interaction.WithButtonLabel(e.bindings),
		interaction.WithNames(defs.Items),
		interaction.WithLogger(o.logger),
		interaction.OnRemoved(e.onRemoved),
		interaction.OnCollected(e.onCollected),
	)
	e.dialogue = dialogue.New(defs.Dialogues,
		dialogue.WithPresenter(e.panel),
		dialogue.WithRewards(rewardSink{inv: e.inventory, im: e.interaction}),
		dialogue.WithPrompt(e.interaction),
		dialogue.WithHint(e.bindings),
		dialogue.WithRNG(e.RNG),
		dialogue.WithObserver(&observer{e: e, next: o.observer}),
		dialogue.WithLogger(o.logger),
	)
	e.interaction.AttachDialogue(e.dialogue)

	for _, def := range defs.Scene {
		el, err := e.interaction.Build(def)
		if err != nil {
			return nil, err
		}
		e.elements[def.ID] = el
	}
	return e, nil
}

// rewardSink puts dialogue rewards in the inventory and announces them.
type rewardSink struct {
	inv *inventory.Inventory
	im  *interaction.Manager
}

func (r rewardSink) Grant(itemID string) {
	r.inv.Grant(itemID)
	r.im.ShowCollected(itemID)
}

// observer records dialogue activity as events and forwards it.
type observer struct {
	e    *Engine
	next dialogue.Observer
}

func (o *observer) DialogueOpened(id string, line int, session string) {
	o.e.rec.Emit(events.DialogueOpened, map[string]any{
		"dialogue_id": id, "line": line, "session": session, "speaker": o.e.speaker,
	})
	if o.next != nil {
		o.next.DialogueOpened(id, line, session)
	}
}

func (o *observer) DialogueDropped(id, code string) {
	o.e.rec.Emit(events.DialogueDropped, map[string]any{"dialogue_id": id, "code": code})
	if o.next != nil {
		o.next.DialogueDropped(id, code)
	}
}

func (o *observer) RewardGranted(id, itemID string) {
	o.e.rec.Emit(events.RewardGranted, map[string]any{"dialogue_id": id, "item_id": itemID})
	if o.next != nil {
		o.next.RewardGranted(id, itemID)
	}
}

func (e *Engine) onRemoved(el interaction.Interactable) {
	e.State.Removed[el.ID()] = true
	delete(e.elements, el.ID())
}

func (e *Engine) onCollected(itemID string) {
	e.rec.Emit(events.ItemCollected, map[string]any{"item_id": itemID, "name": e.Defs.Items.Name(itemID)})
	if e.invObs != nil {
		e.invObs.ItemCollected(itemID)
	}
}

// RestoreRNG reseeds the line-selection RNG and advances it to the saved
// position. The dialogue manager keeps drawing from the same generator.
func (e *Engine) RestoreRNG(seed int64, position int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.RNG.Reset(seed, position)
	e.State.RNGSeed = seed
	e.State.RNGPosition = position
}

// Step processes one player command and returns the result.
func (e *Engine) Step(input string) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result types.Result

	// 1. Parse input and log the command.
	intent := parser.Parse(input)
	e.State.CommandLog = append(e.State.CommandLog, input)

	if intent.Verb == "" {
		result.Output = append(result.Output, "What do you want to do?")
		return result
	}

	// 2. The toast counts down at the start of each step.
	e.toast.Tick()

	wasOpen := e.dialogue.IsOpen()

	// 3. While a line is shown only the dismiss input and passive commands work.
	if wasOpen && !passive(intent.Verb) && intent.Verb != "interact" {
		result.Output = append(result.Output, e.continueLine())
		return result
	}

	// 4. Run the command.
	var out []string
	switch intent.Verb {
	case "look":
		out = e.look()
	case "approach":
		out = e.approach(intent.Object)
	case "leave":
		out = e.leave()
	case "interact":
		out = e.interact()
	case "inventory":
		out = e.listInventory(intent.Args)
	case "use":
		out = e.use(intent.Args)
	case "move":
		out = e.move(intent.Args)
	case "discard":
		out = e.discard(intent.Args)
	case "wait":
		out = []string{"Time passes."}
	default:
		out = []string{"I don't understand that."}
	}
	result.Output = append(result.Output, out...)

	if wasOpen && !e.dialogue.IsOpen() {
		e.rec.Emit(events.DialogueClosed, map[string]any{"speaker": e.speaker})
	}

	// 5. Render the events the command raised.
	evts := e.rec.Drain()
	result.Events = append(result.Events, evts...)
	result.Output = append(result.Output, e.describeEvents(evts)...)

	// 6. Track RNG position for reproducible runs.
	e.State.RNGPosition = e.RNG.Position()
	e.State.TurnCount++

	return result
}

func passive(verb string) bool {
	switch verb {
	case "look", "inventory", "wait":
		return true
	}
	return false
}

func (e *Engine) continueLine() string {
	if hint := e.panel.Hint(); hint != "" {
		return "(" + hint + ")"
	}
	return "(Interact to continue)"
}

func (e *Engine) look() []string {
	var output []string
	if e.Defs.Game.Title != "" {
		output = append(output, e.Defs.Game.Title)
	}

	visible := state.Visible(e.State, e.Defs)
	if len(visible) == 0 {
		output = append(output, "There is nothing around.")
	} else {
		names := make([]string, 0, len(visible))
		for _, def := range visible {
			name := state.DisplayName(def)
			if c, ok := e.elements[def.ID].(*interaction.Chest); ok && c.Opened() {
				name += " (empty)"
			}
			names = append(names, name)
		}
		output = append(output, "You see: "+strings.Join(names, ", ")+".")
	}

	if f := e.interaction.Focused(); f != nil {
		output = append(output, "You are at the "+e.name(f.ID())+".")
	}
	if e.dialogue.IsOpen() {
		output = append(output, e.quote(e.panel.Text()), e.continueLine())
	} else if e.prompt.Visible() {
		output = append(output, e.prompt.String())
	}
	return output
}

func (e *Engine) approach(name string) []string {
	if name == "" {
		return []string{"Approach what?"}
	}
	id, err := resolve.Interactable(e.State, e.Defs, name)
	if err != nil {
		return []string{err.Error()}
	}
	el := e.elements[id]
	prev := e.interaction.Focused()
	if prev == el {
		return []string{"You are already at the " + e.name(id) + "."}
	}

	e.interaction.SetFocus(el)
	if e.interaction.Focused() != el {
		return []string{"There is nothing more to do at the " + e.name(id) + "."}
	}
	e.emitFocus(prev, el)

	out := []string{"You approach the " + e.name(id) + "."}
	if e.prompt.Visible() {
		out = append(out, e.prompt.String())
	}
	return out
}

func (e *Engine) leave() []string {
	prev := e.interaction.Focused()
	if prev == nil {
		return []string{"You are not near anything."}
	}
	e.interaction.ClearFocus(prev)
	e.emitFocus(prev, nil)
	return []string{"You step away from the " + e.name(prev.ID()) + "."}
}

func (e *Engine) emitFocus(from, to interaction.Interactable) {
	data := map[string]any{"from": "", "to": ""}
	if from != nil {
		data["from"] = from.ID()
	}
	if to != nil {
		data["to"] = to.ID()
	}
	e.rec.Emit(events.FocusChanged, data)
}

func (e *Engine) interact() []string {
	focused := e.interaction.Focused()
	if focused != nil {
		e.speaker = e.name(focused.ID())
	}

	switch e.interaction.HandleInteract() {
	case interaction.OutcomeBlocked:
		return []string{"Wait a moment."}
	case interaction.OutcomeNone:
		return []string{"There is nothing here to interact with."}
	case interaction.OutcomeInteracted:
		if after := e.interaction.Focused(); after != focused {
			e.emitFocus(focused, after)
		}
		if c, ok := focused.(*interaction.Chest); ok && c.Loot == "" {
			return []string{"The " + e.name(c.ID()) + " is empty."}
		}
	}
	return nil
}

func (e *Engine) describeEvents(evts []types.Event) []string {
	var out []string
	for _, ev := range evts {
		switch ev.Type {
		case events.DialogueOpened:
			out = append(out, e.speakerLine(e.panel.Text()))
			if hint := e.panel.Hint(); hint != "" {
				out = append(out, "("+hint+")")
			}
		case events.DialogueDropped:
			if ev.Data["code"] == dialogue.CodeNoEligibleLine {
				out = append(out, e.speaker+" has nothing more to say.")
			} else {
				out = append(out, e.speaker+" does not respond.")
			}
		case events.ItemCollected:
			out = append(out, fmt.Sprintf("Collected: %s.", ev.Data["name"]))
		}
	}
	if e.prompt.Visible() && len(evts) > 0 && evts[len(evts)-1].Type == events.DialogueClosed {
		out = append(out, e.prompt.String())
	}
	return out
}

func (e *Engine) speakerLine(text string) string {
	if e.speaker == "" {
		return e.quote(text)
	}
	return e.speaker + ": " + e.quote(text)
}

func (e *Engine) quote(text string) string {
	return strconv.Quote(text)
}

func (e *Engine) listInventory(args []string) []string {
	cats := inventory.Categories
	if len(args) > 0 {
		cat, ok := parser.Category(args[0])
		if !ok {
			return []string{fmt.Sprintf("There is no %q tab.", args[0])}
		}
		cats = []types.Category{cat}
	}

	var out []string
	eq := e.inventory.Equipment()
	for _, cat := range cats {
		var entries []string
		for i, slot := range e.inventory.Slots(cat) {
			if slot.IsEmpty() {
				continue
			}
			entry := fmt.Sprintf("[%d] %s", i, e.Defs.Items.Name(slot.ItemID))
			if eq.IsEquipped(slot.ItemID) {
				entry += " (equipped)"
			}
			entries = append(entries, entry)
		}
		label := tabLabel(cat)
		if len(entries) == 0 {
			out = append(out, label+": empty")
			continue
		}
		out = append(out, label+": "+strings.Join(entries, ", "))
	}
	return out
}

func tabLabel(cat types.Category) string {
	if cat == types.CategoryConsumable {
		return "Consumables"
	}
	return "Equipment"
}

// slotArgs parses "<category> <slot> [<slot>...]".
func slotArgs(args []string, n int) (types.Category, []int, error) {
	if len(args) != n+1 {
		return "", nil, fmt.Errorf("expected a category and %d slot number(s)", n)
	}
	cat, ok := parser.Category(args[0])
	if !ok {
		return "", nil, fmt.Errorf("there is no %q tab", args[0])
	}
	idx := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(args[i+1])
		if err != nil {
			return "", nil, fmt.Errorf("%q is not a slot number", args[i+1])
		}
		idx[i] = v
	}
	return cat, idx, nil
}

func (e *Engine) slotItem(cat types.Category, i int) string {
	slots := e.inventory.Slots(cat)
	if i < 0 || i >= len(slots) {
		return ""
	}
	return slots[i].ItemID
}

func (e *Engine) use(args []string) []string {
	cat, idx, err := slotArgs(args, 1)
	if err != nil {
		return []string{"Use what? (" + err.Error() + ")"}
	}
	id := e.slotItem(cat, idx[0])
	if id == "" {
		return []string{"That slot is empty."}
	}
	if !e.inventory.Use(cat, idx[0]) {
		return []string{"You can't use the " + e.Defs.Items.Name(id) + "."}
	}
	e.rec.Emit(events.ItemUsed, map[string]any{"item_id": id, "category": string(cat)})
	if e.invObs != nil {
		e.invObs.ItemUsed(id, cat)
	}

	name := e.Defs.Items.Name(id)
	def, _ := e.Defs.Items.Get(id)
	switch {
	case def.Type == types.ItemConsumable:
		return []string{"You use the " + name + "."}
	case e.inventory.Equipment().IsEquipped(id):
		return []string{"You equip the " + name + "."}
	default:
		return []string{"You unequip the " + name + "."}
	}
}

func (e *Engine) move(args []string) []string {
	cat, idx, err := slotArgs(args, 2)
	if err != nil {
		return []string{"Move what? (" + err.Error() + ")"}
	}
	if e.slotItem(cat, idx[0]) == "" {
		return []string{"That slot is empty."}
	}
	if idx[1] < 0 || idx[1] >= e.inventory.Capacity() {
		return []string{"There is no such slot."}
	}
	e.inventory.MoveSlot(cat, idx[0], idx[1])
	return []string{"Done."}
}

func (e *Engine) discard(args []string) []string {
	cat, idx, err := slotArgs(args, 1)
	if err != nil {
		return []string{"Discard what? (" + err.Error() + ")"}
	}
	id := e.slotItem(cat, idx[0])
	if id == "" {
		return []string{"That slot is empty."}
	}
	e.inventory.ClearSlot(cat, idx[0])
	return []string{"You discard the " + e.Defs.Items.Name(id) + "."}
}

// name returns the display name of an interactable.
func (e *Engine) name(id string) string {
	if def, ok := state.FindInteractable(e.Defs, id); ok {
		return state.DisplayName(def)
	}
	return id
}

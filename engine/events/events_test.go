package events

import (
	"testing"

	"github.com/nathoo/questline/types"
)

func TestRecorder_DrainResets(t *testing.T) {
	r := NewRecorder()
	r.Emit(DialogueOpened, map[string]any{"dialogue_id": "merchant"})
	r.Emit(RewardGranted, map[string]any{"item_id": "potion"})

	evts := r.Drain()
	if len(evts) != 2 {
		t.Fatalf("got %d events, want 2", len(evts))
	}
	if evts[0].Type != DialogueOpened || evts[1].Data["item_id"] != "potion" {
		t.Errorf("unexpected events: %+v", evts)
	}
	if again := r.Drain(); len(again) != 0 {
		t.Errorf("second drain returned %d events", len(again))
	}
}

func TestRecorder_Handlers(t *testing.T) {
	r := NewRecorder()
	var typed, all []string
	r.On(ItemCollected, func(ev types.Event) { typed = append(typed, ev.Data["item_id"].(string)) })
	r.On("", func(ev types.Event) { all = append(all, ev.Type) })

	r.Emit(FocusChanged, nil)
	r.Emit(ItemCollected, map[string]any{"item_id": "sword"})
	r.Drain()

	if len(typed) != 1 || typed[0] != "sword" {
		t.Errorf("typed handler saw %v", typed)
	}
	if len(all) != 2 || all[0] != FocusChanged {
		t.Errorf("catch-all handler saw %v", all)
	}
}

func TestRecorder_NoRecursion(t *testing.T) {
	r := NewRecorder()
	calls := 0
	r.On(DialogueClosed, func(types.Event) {
		calls++
		r.Emit(DialogueClosed, nil)
	})

	r.Emit(DialogueClosed, nil)
	r.Drain()
	if calls != 1 {
		t.Fatalf("handler ran %d times in one drain, want 1", calls)
	}

	r.Drain()
	if calls != 2 {
		t.Errorf("handler ran %d times after second drain, want 2", calls)
	}
}

func TestDispatch_NoHandlers(t *testing.T) {
	Dispatch([]types.Event{{Type: ItemUsed}}, nil)
}

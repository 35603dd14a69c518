package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlocker_NeverNegative(t *testing.T) {
	var b Blocker
	b.Pop()
	assert.False(t, b.Blocked())

	b.Push()
	b.Push()
	b.Pop()
	assert.True(t, b.Blocked())

	b.Clear()
	assert.False(t, b.Blocked())
}

func TestDialoguePanel_HideFiresCallbackOnce(t *testing.T) {
	var b Blocker
	p := NewDialoguePanel(&b)
	calls := 0

	p.SetHint("Press E to continue")
	p.Show("Hello there.", func() { calls++ })
	assert.True(t, p.Visible())
	assert.True(t, b.Blocked())
	assert.Equal(t, "Hello there.", p.Text())
	assert.Equal(t, "Press E to continue", p.Hint())

	p.Hide()
	p.Hide()
	assert.Equal(t, 1, calls)
	assert.False(t, p.Visible())
	assert.False(t, b.Blocked())
}

func TestDialoguePanel_ShowTwiceBlocksOnce(t *testing.T) {
	var b Blocker
	p := NewDialoguePanel(&b)

	p.Show("one", nil)
	p.Show("two", nil)
	p.Hide()
	assert.False(t, b.Blocked())
	assert.Equal(t, "two", p.Text())
}

func TestDialoguePanel_CallbackSeesHiddenPanel(t *testing.T) {
	p := NewDialoguePanel(nil)
	var visibleInCallback bool
	p.Show("x", func() { visibleInCallback = p.Visible() })
	p.Hide()
	assert.False(t, visibleInCallback)
}

func TestPromptPanel(t *testing.T) {
	var p PromptPanel
	p.Show("Talk", "E")
	assert.True(t, p.Visible())
	assert.Equal(t, "[E] Talk", p.String())

	p.Show("Open", "")
	assert.Equal(t, "Open", p.String())

	p.Hide()
	assert.False(t, p.Visible())
}

func TestCollectedToast_Countdown(t *testing.T) {
	var b Blocker
	hidden := 0
	toast := NewCollectedToast(&b, 2, func() { hidden++ })

	toast.Show("Potion")
	assert.True(t, toast.Visible())
	assert.True(t, b.Blocked())
	assert.Equal(t, "Potion", toast.ItemName())

	toast.Tick()
	assert.True(t, toast.Visible())
	toast.Tick()
	assert.False(t, toast.Visible())
	assert.False(t, b.Blocked())
	assert.Equal(t, 1, hidden)

	toast.Tick()
	assert.Equal(t, 1, hidden, "ticking a hidden toast does nothing")
}

func TestCollectedToast_RestartDoesNotDoubleBlock(t *testing.T) {
	var b Blocker
	toast := NewCollectedToast(&b, 1, nil)

	toast.Show("Potion")
	toast.Show("Sword")
	toast.Tick()
	assert.False(t, b.Blocked())
	assert.Equal(t, "Sword", toast.ItemName())

	toast.Show("")
	assert.False(t, toast.Visible())
}

package render

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"farmwatch/internal/status"
)

type fakeProgram struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (f *fakeProgram) Send(msg tea.Msg) {
	f.mu.Lock()
	f.msgs = append(f.msgs, msg)
	f.mu.Unlock()
}

func TestTUIMessages(t *testing.T) {
	p := &fakeProgram{}
	ui := &TUI{program: p}
	ui.SetValue(SignalValue, "91%")
	ui.SetValue("unknown", "x")
	ui.SetStatus(SignalStatus, status.Good)
	ui.SetProgress(SignalBar, 91)
	ui.Notify(Success, "Drone connected successfully")
	if len(p.msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(p.msgs))
	}
	if _, ok := p.msgs[0].(valueMsg); !ok {
		t.Fatalf("expected valueMsg, got %T", p.msgs[0])
	}
	if _, ok := p.msgs[3].(noticeMsg); !ok {
		t.Fatalf("expected noticeMsg, got %T", p.msgs[3])
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelRendersState(t *testing.T) {
	m := newTUIModel("Farm", nil)
	mi, _ := m.Update(valueMsg{id: BatteryValue, text: "84%"})
	mi, _ = mi.Update(statusMsg{id: SoilPHStatus, level: status.Good})
	mi, _ = mi.Update(valueMsg{id: SoilPHValue, text: "6.4"})
	mi, _ = mi.Update(noticeMsg{Notice{Kind: Info, Message: "Viewing data from Node 1", Time: time.Unix(0, 0)}})
	view := mi.View()
	for _, want := range []string{"84%", "6.4", "Good", "Viewing data from Node 1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestConfirmActionRequiresYes(t *testing.T) {
	ran := make(chan string, 2)
	actions := []Action{{Key: "x", Help: "emergency stop", Confirm: "Stop the drone?", Run: func(string) { ran <- "stop" }}}
	m := newTUIModel("Farm", actions)

	mi, _ := m.Update(key("x"))
	if !strings.Contains(mi.View(), "Stop the drone?") {
		t.Fatalf("expected confirmation prompt")
	}
	mi, _ = mi.Update(key("n"))
	select {
	case <-ran:
		t.Fatalf("action ran without confirmation")
	case <-time.After(20 * time.Millisecond):
	}

	mi, _ = mi.Update(key("x"))
	_, _ = mi.Update(key("y"))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatalf("confirmed action did not run")
	}
}

func TestPromptActionPassesInput(t *testing.T) {
	got := make(chan string, 1)
	actions := []Action{{Key: "c", Help: "connect", Prompt: "Address:", Default: "192.168.1.1", Run: func(in string) { got <- in }}}
	m := newTUIModel("Farm", actions)
	mi, _ := m.Update(key("c"))
	_, _ = mi.Update(tea.KeyMsg{Type: tea.KeyEnter})
	select {
	case in := <-got:
		if in != "192.168.1.1" {
			t.Fatalf("unexpected input %q", in)
		}
	case <-time.After(time.Second):
		t.Fatalf("prompt action did not run")
	}
}

func TestWrapAndHelpToggle(t *testing.T) {
	m := newTUIModel("Farm", []Action{{Key: "s", Help: "start mission"}})
	mi, _ := m.Update(key("w"))
	if !mi.(tuiModel).wrap {
		t.Fatalf("wrap not toggled")
	}
	mi, _ = mi.Update(key("?"))
	if !strings.Contains(mi.View(), "start mission") {
		t.Fatalf("help view missing action")
	}
	mi, _ = mi.Update(key("z"))
	if mi.(tuiModel).help {
		t.Fatalf("help should close on any key")
	}
}

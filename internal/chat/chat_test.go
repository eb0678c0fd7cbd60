package chat

import "testing"

func TestCheckAllowsOrdinaryMessage(t *testing.T) {
	m := NewModerator()
	clean, ok := m.Check(1, "hello there")
	if !ok {
		t.Fatalf("Check(hello there) ok = false, want true")
	}
	if clean != "hello there" {
		t.Fatalf("Check(hello there) = %q, want unchanged", clean)
	}
}

func TestCheckBlocksRepeatedFlooding(t *testing.T) {
	m := NewModerator()
	var lastOK bool
	for i := 0; i < 20; i++ {
		_, lastOK = m.Check(1, "spam spam spam")
	}
	if lastOK {
		t.Fatalf("Check allowed the 20th identical message in a row, want blocked as repetition spam")
	}
}

func TestForgetResetsHistory(t *testing.T) {
	m := NewModerator()
	for i := 0; i < 20; i++ {
		m.Check(1, "spam spam spam")
	}
	m.Forget(1)
	if _, ok := m.histories[1]; ok {
		t.Fatalf("history for client 1 still present after Forget")
	}
}

func TestCheckTracksHistoryPerClientIndependently(t *testing.T) {
	m := NewModerator()
	for i := 0; i < 20; i++ {
		m.Check(1, "spam spam spam")
	}
	if _, ok := m.Check(2, "hello there"); !ok {
		t.Fatalf("client 2's first message was blocked by client 1's spam history")
	}
}

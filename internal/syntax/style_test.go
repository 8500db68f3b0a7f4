package syntax

import "testing"

func TestStyleMappingDefaults(t *testing.T) {
	m := NewStyleMapping()
	if got := m.StyleID(DefaultStyleName); got != DefaultStyleID {
		t.Errorf("StyleID(default) = %d, want %d", got, DefaultStyleID)
	}
	if got := m.StyleName(DefaultStyleID); got != DefaultStyleName {
		t.Errorf("StyleName(0) = %q, want %q", got, DefaultStyleName)
	}
	if got := m.StyleID("unknown"); got != DefaultStyleID {
		t.Errorf("StyleID(unknown) = %d, want default", got)
	}
	if got := m.StyleName(99); got != DefaultStyleName {
		t.Errorf("StyleName(99) = %q, want default", got)
	}
}

func TestStyleMappingRegister(t *testing.T) {
	m := NewStyleMapping()
	m.Register("keyword", 1)
	m.Register("string", 2)
	if got := m.StyleID("keyword"); got != 1 {
		t.Errorf("StyleID(keyword) = %d, want 1", got)
	}
	if got := m.StyleName(2); got != "string" {
		t.Errorf("StyleName(2) = %q, want string", got)
	}

	// Re-registration overwrites.
	m.Register("keyword", 7)
	if got := m.StyleID("keyword"); got != 7 {
		t.Errorf("StyleID(keyword) after overwrite = %d, want 7", got)
	}
}

func TestGetOrCreateStyleID(t *testing.T) {
	t.Run("existing name returns its id", func(t *testing.T) {
		m := NewStyleMapping()
		m.Register("keyword", 5)
		if got := m.GetOrCreateStyleID("keyword"); got != 5 {
			t.Errorf("GetOrCreateStyleID(keyword) = %d, want 5", got)
		}
	})

	t.Run("new names skip registered ids", func(t *testing.T) {
		m := NewStyleMapping()
		m.Register("keyword", 1)
		m.Register("string", 2)
		id := m.GetOrCreateStyleID("comment")
		if id == 0 || id == 1 || id == 2 {
			t.Fatalf("GetOrCreateStyleID allocated a taken id %d", id)
		}
		if got := m.GetOrCreateStyleID("comment"); got != id {
			t.Errorf("second GetOrCreateStyleID = %d, want %d", got, id)
		}
	})

	t.Run("allocations are distinct", func(t *testing.T) {
		m := NewStyleMapping()
		a := m.GetOrCreateStyleID("a")
		b := m.GetOrCreateStyleID("b")
		if a == b {
			t.Errorf("ids collide: %d", a)
		}
	})
}

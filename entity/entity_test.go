package entity

import (
	"errors"
	"sync"
	"testing"

	"golang.org/x/net/html"
)

func TestDecode(t *testing.T) {
	tbl := NewTable()
	tests := []struct {
		symbol string
		want   rune
	}{
		{"amp", '&'},
		{"lt", '<'},
		{"quot", '"'},
		{"nbsp", 0xA0},
		{"#65", 'A'},
		{"#x41", 'A'},
		{"#X41", 'A'},
		{"#1055", 'П'},
		{"copy", '©'},
		{"Agrave", 'À'},
		{"agrave", 'à'},
		{"yuml", 'ÿ'},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			got, err := tbl.Decode(tt.symbol)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", tt.symbol, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%q) = %q, want %q", tt.symbol, got, tt.want)
			}
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	tbl := NewTable()
	for _, symbol := range []string{"zzz", "", "#", "#x", "#xZZ", "#0", "#1114112", "AMP"} {
		t.Run(symbol, func(t *testing.T) {
			if _, err := tbl.Decode(symbol); !errors.Is(err, ErrUnrecognizedEntity) {
				t.Errorf("Decode(%q) error = %v, want ErrUnrecognizedEntity", symbol, err)
			}
		})
	}
}

// Built-in Latin-1 table must agree with the HTML5 named character references.
func TestLatin1MatchesHTML(t *testing.T) {
	tbl := NewTable()
	for i, name := range latin1 {
		want := []rune(html.UnescapeString("&" + name + ";"))
		if len(want) != 1 {
			t.Fatalf("html does not know &%s;", name)
		}
		got, err := tbl.Decode(name)
		if err != nil {
			t.Fatalf("Decode(%q) error = %v", name, err)
		}
		if got != want[0] || got != rune(latin1First+i) {
			t.Errorf("Decode(%q) = %U, html says %U", name, got, want[0])
		}
	}
}

func TestUserEntities(t *testing.T) {
	tbl := NewTable()
	tbl.Register("euro", '€')
	tbl.RegisterRange([]string{"alpha", "", "gamma"}, 'α')

	if r, err := tbl.Decode("euro"); err != nil || r != '€' {
		t.Errorf("Decode(euro) = %q, %v", r, err)
	}
	if r, err := tbl.Decode("gamma"); err != nil || r != 'γ' {
		t.Errorf("Decode(gamma) = %q, %v", r, err)
	}
	if names := tbl.Names('α'); len(names) != 1 || names[0] != "alpha" {
		t.Errorf("Names(α) = %v", names)
	}

	tbl.Reset()
	if _, err := tbl.Decode("euro"); err == nil {
		t.Error("user entity survived Reset")
	}
}

func TestConcurrentLookups(t *testing.T) {
	tbl := NewTable()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			for range 100 {
				if _, err := tbl.Decode("amp"); err != nil {
					t.Errorf("worker %d: %v", i, err)
					return
				}
				tbl.Decode("custom")
			}
		})
	}
	tbl.Register("custom", 'x')
	wg.Wait()
}

package syntax

import "testing"

func TestPosString(t *testing.T) {
	tests := []struct {
		name    string
		pos     Pos
		wantStr string
	}{
		{
			name:    "with filename",
			pos:     NewPos("list.c", 10, 5),
			wantStr: "list.c:10:5",
		},
		{
			name:    "without filename",
			pos:     NewPos("", 10, 5),
			wantStr: "10:5",
		},
		{
			name:    "zero value",
			pos:     Pos{},
			wantStr: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.String(); got != tt.wantStr {
				t.Errorf("Pos.String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestPosOffset(t *testing.T) {
	if got := NewPos("a.c", 1, 1).Offset(); got != -1 {
		t.Errorf("NewPos offset = %d, want -1", got)
	}
	if got := NewPosOffset("a.c", 3, 4, 42).Offset(); got != 42 {
		t.Errorf("NewPosOffset offset = %d, want 42", got)
	}
	if got := (Pos{}).Offset(); got != -1 {
		t.Errorf("zero Pos offset = %d, want -1", got)
	}
}

func TestPosCompare(t *testing.T) {
	tests := []struct {
		name string
		p, q Pos
		want int
	}{
		{"equal", NewPos("a.c", 2, 3), NewPos("a.c", 2, 3), 0},
		{"file", NewPos("a.c", 9, 9), NewPos("b.c", 1, 1), -1},
		{"line", NewPos("a.c", 3, 1), NewPos("a.c", 2, 8), 1},
		{"col", NewPos("a.c", 2, 1), NewPos("a.c", 2, 8), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Compare(tt.q); got != tt.want {
				t.Errorf("Compare = %d, want %d", got, tt.want)
			}
		})
	}
}

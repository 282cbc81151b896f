package syntax

import "testing"

func TestParseType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"int", "int"},
		{"unsigned long long", "unsigned long long"},
		{"const char *", "*const char"},
		{"char const *const", "*const char"},
		{"int *[4]", "[4]*int"},
		{"int (*)[4]", "*[4]int"},
		{"int [2][3]", "[2][3]int"},
		{"int (*)(int, char *)", "*func(int, *char) int"},
		{"int (const char *, ...)", "func(*const char, ...) int"},
		{"void (void)", "func() void"},
		{"int ()", "func() int"},
		{"void (*(*)(int))(void)", "*func(int) *func() void"},
		{"struct point *", "*struct point"},
		{"const struct node", "const struct node"},
		{"struct (unnamed struct at list.c:3:9)", "struct (unnamed struct at list.c:3:9)"},
		{"union (anonymous union at a.h:10:5) *", "*union (anonymous union at a.h:10:5)"},
		{"size_t", "size_t"},
		{"const size_t *restrict", "*const size_t"},
		{"char [n]", "[*]char"},
		{"int []", "[]int"},
		{"__attribute__((__vector_size__(4 * sizeof(float)))) float", "float __attribute__((__vector_size__(4 * sizeof(float))))"},
		{"_Atomic(int)", "_Atomic int"},
		{"unsigned __int128", "unsigned __int128"},
		{"void (^)(int)", "^func(int) void"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseType(tt.text)
			if err != nil {
				t.Fatalf("ParseType(%q) error: %v", tt.text, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseType(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseTypeAnonymousKind(t *testing.T) {
	got, err := ParseType("(unnamed union at u.c:1:1)")
	if err != nil {
		t.Fatal(err)
	}
	b, ok := got.(*BaseType)
	if !ok || !b.IsUnion() || b.Anon != "unnamed union at u.c:1:1" {
		t.Errorf("got %#v, want anonymous union", got)
	}
}

func TestParseTypeErrors(t *testing.T) {
	tests := []string{
		"",
		"int (",
		"int [4",
		"* int",
		"int @",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			if _, err := ParseType(text); err == nil {
				t.Errorf("ParseType(%q) succeeded, want error", text)
			}
		})
	}
}

func TestScannerTokens(t *testing.T) {
	s := NewScanner("const struct (unnamed struct at a.c:1:2) *(*)[8], ...", nil)
	var got []Token
	for s.Next(); s.Token() != _EOF; s.Next() {
		got = append(got, s.Token())
	}
	want := []Token{_Const, _Struct, _Anon, _Star, _Lparen, _Star, _Rparen, _Lbrack, _Number, _Rbrack, _Comma, _Ellipsis}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

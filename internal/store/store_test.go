package store

import "testing"

// TestInterfaceCompilation verifies that the interface compiles correctly.
func TestInterfaceCompilation(t *testing.T) {
	var _ Backend = (*mockBackend)(nil)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"sqlite", KindSQLite, false},
		{"bolt", KindBolt, false},
		{"file", KindFile, false},
		{"memory", KindMemory, false},
		{"", "", true},
		{"redis", "", true},
		{"SQLite", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

type mockBackend struct {
	entries []string
}

func (m *mockBackend) Load() ([]string, error) {
	return append([]string(nil), m.entries...), nil
}

func (m *mockBackend) Save(entries []string) error {
	m.entries = append([]string(nil), entries...)
	return nil
}

func (m *mockBackend) Update(fn func([]string) []string) error {
	m.entries = append([]string(nil), fn(append([]string(nil), m.entries...))...)
	return nil
}

func (m *mockBackend) Close() error {
	return nil
}

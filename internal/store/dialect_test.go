package store

import "testing"

func TestRewritePlaceholders(t *testing.T) {
	tests := []struct {
		driver string
		in     string
		want   string
	}{
		{driver: "sqlite", in: "SELECT * FROM t WHERE a = ? AND b = ?", want: "SELECT * FROM t WHERE a = ? AND b = ?"},
		{driver: "postgres", in: "SELECT * FROM t WHERE a = ? AND b = ?", want: "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{driver: "postgres", in: "SELECT 1", want: "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.driver+" "+tt.in, func(t *testing.T) {
			d, err := DialectFor(tt.driver)
			if err != nil {
				t.Fatalf("dialect: %v", err)
			}
			if got := d.RewriteQuery(tt.in); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDialectForUnknown(t *testing.T) {
	if _, err := DialectFor("mysql"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

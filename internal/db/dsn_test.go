package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"  'host=db user=u dbname=x'  ", "host=db user=u dbname=x sslmode=disable"},
		{"host=db   user=u dbname=x sslmode=require", "host=db user=u dbname=x sslmode=require"},
		{"postgres://u:p@db:5432/x", "postgres://u:p@db:5432/x"},
		{"file:gersa.db", "file:gersa.db"},
	}
	for _, c := range cases {
		if got := NormalizeDSN(c.in); got != c.want {
			t.Errorf("NormalizeDSN(%q) = %q want %q", c.in, got, c.want)
		}
	}
}

func TestToURLDSN(t *testing.T) {
	got := ToURLDSN("host=db port=5433 user=u password=p dbname=x sslmode=disable")
	want := "postgres://u:p@db:5433/x?sslmode=disable"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := ToURLDSN("host=db"); got != "host=db" {
		t.Fatalf("incomplete DSN should be returned as-is, got %q", got)
	}
}

func TestMaskDSN(t *testing.T) {
	if got := MaskDSN("host=db password=secret dbname=x"); got != "host=db password=*** dbname=x" {
		t.Fatalf("kv mask: %q", got)
	}
	cases := map[string]string{
		"postgres://u:secret@db/x":          "postgres://u:xxxxx@db/x",
		"postgres://u:p%40ss@db:5432/x?a=b": "postgres://u:xxxxx@db:5432/x?a=b",
		"postgres://u@db/x":                 "postgres://u@db/x",
		"file:gersa.db":                     "file:gersa.db",
	}
	for in, want := range cases {
		if got := MaskDSN(in); got != want {
			t.Errorf("MaskDSN(%q) = %q want %q", in, got, want)
		}
	}
}

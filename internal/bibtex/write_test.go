package bibtex

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestEntry_Format(t *testing.T) {
	e := &Entry{
		Type: "article",
		Key:  "Smith2020",
		Fields: map[string]string{
			"year":     "2020",
			"title":    "A {Study} of Things",
			"note":     "in press",
			"author":   "Smith, John",
			"abstract": "Short",
		},
	}

	want := "@article{Smith2020,\n" +
		"  author = {Smith, John},\n" +
		"  title = {A {Study} of Things},\n" +
		"  year = {2020},\n" +
		"  abstract = {Short},\n" +
		"  note = {in press}\n" +
		"}\n"
	if got := e.Format(); got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}

	empty := &Entry{Type: "misc", Key: "Empty2021", Fields: map[string]string{}}
	if got := empty.Format(); got != "@misc{Empty2021\n}\n" {
		t.Errorf("Format() of empty entry = %q", got)
	}
}

func TestDatabase_Write_RoundTrip(t *testing.T) {
	db, errs := Parse([]byte(sampleBib))
	if len(errs) != 0 {
		t.Fatalf("Parse() errors = %v", errs)
	}

	var buf bytes.Buffer
	missing, err := db.Write(&buf, []string{"Knuth1984", "nope", "Smith2020"})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !reflect.DeepEqual(missing, []string{"nope"}) {
		t.Errorf("missing = %v, want [nope]", missing)
	}
	if strings.Index(buf.String(), "Knuth1984") > strings.Index(buf.String(), "Smith2020") {
		t.Errorf("Write() should keep the requested order:\n%s", buf.String())
	}

	again, errs := Parse(buf.Bytes())
	if len(errs) != 0 {
		t.Fatalf("re-Parse() errors = %v", errs)
	}
	for _, key := range []string{"Smith2020", "Knuth1984"} {
		orig, _ := db.Lookup(key)
		got, ok := again.Lookup(key)
		if !ok {
			t.Fatalf("re-parsed database lacks %s", key)
		}
		if !reflect.DeepEqual(got.Fields, orig.Fields) || got.Type != orig.Type {
			t.Errorf("%s round trip = %+v, want %+v", key, got, orig)
		}
	}
}

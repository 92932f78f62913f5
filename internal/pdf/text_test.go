package pdf

import (
	"reflect"
	"testing"
)

func TestMissingLinesIgnoresWhitespace(t *testing.T) {
	extracted := "JaneDoe\njane@x.com\nPROFESSIONAL   SUMMARY Engineer who\nships."
	expected := []string{"Jane Doe", "jane@x.com", "PROFESSIONAL SUMMARY", "Engineer who ships.", "Go (Expert)"}

	got := MissingLines(extracted, expected)
	if !reflect.DeepEqual(got, []string{"Go (Expert)"}) {
		t.Fatalf("missing = %v", got)
	}
}

func TestExtractTextRejectsGarbage(t *testing.T) {
	if _, err := ExtractText([]byte("not a pdf")); err == nil {
		t.Fatal("expected error for non-pdf input")
	}
}

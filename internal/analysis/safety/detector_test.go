package safety

import "testing"

func TestDetectCaseInsensitiveSubstring(t *testing.T) {
	d := NewDetector(nil)

	match, ok := d.Detect("Sometimes I think about SUICIDE at night")
	if !ok {
		t.Fatal("expected trigger match")
	}
	if match.Trigger != "suicide" {
		t.Fatalf("expected suicide trigger, got %q", match.Trigger)
	}

	if _, ok := d.Detect("I want to Kill Myself"); !ok {
		t.Fatal("expected multi-word trigger match")
	}
}

func TestDetectMatchesInsideWords(t *testing.T) {
	d := NewDetector(nil)

	// plain substring containment, no word boundaries
	if _, ok := d.Detect("they always hurt meaningful things"); !ok {
		t.Fatal("expected substring match for 'hurt me'")
	}
}

func TestDetectNoMatch(t *testing.T) {
	d := NewDetector(nil)

	if _, ok := d.Detect("I had a rough day at work"); ok {
		t.Fatal("did not expect a trigger match")
	}
	if _, ok := d.Detect(""); ok {
		t.Fatal("did not expect a match on empty input")
	}
}

func TestCustomTriggers(t *testing.T) {
	d := NewDetector([]string{"  End It All ", ""})

	if got := d.Triggers(); len(got) != 1 || got[0] != "End It All" {
		t.Fatalf("unexpected triggers: %q", got)
	}
	if _, ok := d.Detect("i want to end it all"); !ok {
		t.Fatal("expected custom trigger match")
	}
	if _, ok := d.Detect("suicide"); ok {
		t.Fatal("custom list should replace defaults")
	}
}

package sanitize

import "testing"

func TestTextStripsTags(t *testing.T) {
	if got := Text("<b>great</b> call"); got != "great call" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestTextCatchesEncodedTags(t *testing.T) {
	if got := Text("&lt;script&gt;alert(1)&lt;/script&gt;notes"); got != "alert(1)notes" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("expected nil passthrough")
	}
	in := "  <i>follow up</i>  "
	if got := TextPtr(&in); got == nil || *got != "follow up" {
		t.Fatalf("unexpected output %v", got)
	}
}

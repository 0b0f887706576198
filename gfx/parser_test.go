package gfx

import "testing"

func TestParseCommandBasicFields(t *testing.T) {
	cmd := parseCommand([]byte("a=t,f=32,s=2,v=1,i=5,S=8,m=1;AAAA"))
	if cmd.Action != ActionTransmit {
		t.Fatalf("action = %q, want t", cmd.Action)
	}
	if cmd.Format != FormatRGBA32 {
		t.Fatalf("format = %d, want 32", cmd.Format)
	}
	if cmd.DataWidth != 2 || cmd.DataHeight != 1 {
		t.Fatalf("data dims = %dx%d, want 2x1", cmd.DataWidth, cmd.DataHeight)
	}
	if cmd.ImageID != 5 {
		t.Fatalf("image id = %d, want 5", cmd.ImageID)
	}
	if cmd.ExpectedSize != 8 {
		t.Fatalf("expected size = %d, want 8", cmd.ExpectedSize)
	}
	if !cmd.More {
		t.Fatalf("expected More=true")
	}
	if string(cmd.Payload) != "AAAA" {
		t.Fatalf("payload = %q", cmd.Payload)
	}
}

// Key order must not matter: a,i,I are resolved before other keys are
// interpreted, regardless of where they appear in the key stream.
func TestParseCommandKeyOrderIndependent(t *testing.T) {
	first := parseCommand([]byte("a=a,s=3,v=5"))
	second := parseCommand([]byte("s=3,v=5,a=a"))

	if first.Action != ActionAnimate || second.Action != ActionAnimate {
		t.Fatalf("expected both parses to resolve action=a")
	}
	if first.AnimState != AnimationState(3) || second.AnimState != AnimationState(3) {
		t.Fatalf("s= should resolve to AnimState under a=a regardless of key order")
	}
	if first.LoopCount != 5 || second.LoopCount != 5 {
		t.Fatalf("v= should resolve to LoopCount under a=a regardless of key order")
	}
}

func TestParseCommandUnknownKeyDiagnostic(t *testing.T) {
	cmd := parseCommand([]byte("a=t,Z=3,i=7"))
	if cmd.ImageID != 7 {
		t.Fatalf("image id should still parse despite unknown key, got %d", cmd.ImageID)
	}
	if len(cmd.Diagnostics) == 0 {
		t.Fatalf("expected a diagnostic for unknown key Z")
	}
}

func TestResolveScaleMode(t *testing.T) {
	cases := []struct {
		rows, cols int
		want       ScaleMode
	}{
		{0, 0, ScaleNone},
		{0, 4, ScaleContain},
		{2, 0, ScaleContain},
		{2, 4, ScaleFill},
	}
	for _, c := range cases {
		if got := resolveScaleMode(c.rows, c.cols); got != c.want {
			t.Errorf("resolveScaleMode(%d,%d) = %v, want %v", c.rows, c.cols, got, c.want)
		}
	}
}

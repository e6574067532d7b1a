package scene

import (
	"testing"

	"github.com/lessonloop/scenario-backend/internal/types"
)

func line(scene string, order int, text string) types.Line {
	return types.Line{Scene: scene, Order: order, Text: text}
}

func TestBuild_GroupsAndSortsByOrder(t *testing.T) {
	idx := Build([]types.Line{
		line("start", 2, "second"),
		line("start", 1, "first"),
		line("lab", 1, "lab first"),
		line("start", 3, "third"),
	})

	lines, ok := idx.Scene("start")
	if !ok {
		t.Fatalf("expected scene start")
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, want := range []string{"first", "second", "third"} {
		if lines[i].Text != want {
			t.Fatalf("position %d: got %q, want %q", i, lines[i].Text, want)
		}
	}
}

func TestBuild_StableSortKeepsDuplicateOrderInputOrder(t *testing.T) {
	idx := Build([]types.Line{
		line("s", 1, "a"),
		line("s", 1, "b"),
	})
	lines, _ := idx.Scene("s")
	if lines[0].Text != "a" || lines[1].Text != "b" {
		t.Fatalf("duplicate orders must keep input order, got %q then %q", lines[0].Text, lines[1].Text)
	}
}

func TestSceneIDs_FirstAppearanceOrder(t *testing.T) {
	idx := Build([]types.Line{
		line("intro", 1, ""),
		line("lab", 1, ""),
		line("intro", 2, ""),
		line("outro", 1, ""),
	})
	got := idx.SceneIDs()
	want := []string{"intro", "lab", "outro"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestStart_FallbackChain(t *testing.T) {
	idx := Build([]types.Line{
		line("start", 1, ""),
		line("doppler", 1, ""),
	})

	if id, fellBack := idx.Start("doppler"); id != "doppler" || fellBack {
		t.Fatalf("requested scene present: got %q fellBack=%v", id, fellBack)
	}
	if id, fellBack := idx.Start("missing"); id != DefaultScene || !fellBack {
		t.Fatalf("expected fallback to default scene, got %q fellBack=%v", id, fellBack)
	}

	noDefault := Build([]types.Line{line("only", 1, "")})
	if id, fellBack := noDefault.Start("missing"); id != "only" || !fellBack {
		t.Fatalf("expected fallback to first scene, got %q fellBack=%v", id, fellBack)
	}

	empty := Build(nil)
	if id, _ := empty.Start("anything"); id != "" {
		t.Fatalf("empty dataset should yield no start scene, got %q", id)
	}
}

func TestContains(t *testing.T) {
	lines := []types.Line{line("a", 1, ""), line("b", 1, "")}
	if !Contains(lines, "b") {
		t.Fatalf("expected containment of scene b")
	}
	if Contains(lines, "c") {
		t.Fatalf("did not expect containment of scene c")
	}
}

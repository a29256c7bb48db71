package review_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"imgsauce/internal/catalog"
	"imgsauce/internal/review"
)

type recordingLauncher struct {
	opened []string
}

func (l *recordingLauncher) Open(_ context.Context, target string) error {
	l.opened = append(l.opened, target)
	return nil
}

func postURL(id int64) string { return fmt.Sprintf("https://board.test/posts/%d", id) }

func sampleItem() review.Item {
	return review.Item{
		Image: catalog.Image{ID: 4, Path: "/pics/a.png"},
		Candidates: []catalog.Match{
			{ID: 1, RemoteID: 100, Similarity: 88.4},
			{ID: 2, RemoteID: 200, Similarity: 70},
		},
		Position: 1,
		Total:    2,
	}
}

func TestTerminalRepromptsUntilValid(t *testing.T) {
	var out strings.Builder
	launcher := &recordingLauncher{}
	term := review.NewTerminal(strings.NewReader("maybe\n7\n1\n"), &out, launcher, postURL)

	decision, err := term.Present(context.Background(), sampleItem())
	if err != nil {
		t.Fatalf("Present: %v", err)
	}
	if decision.Action != review.ActionSubset || len(decision.Indices) != 1 || decision.Indices[0] != 1 {
		t.Fatalf("unexpected decision %+v", decision)
	}

	text := out.String()
	if strings.Count(text, "Matching candidates") != 3 {
		t.Fatalf("expected three prompts, got output:\n%s", text)
	}
	if strings.Count(text, "invalid input") != 2 {
		t.Fatalf("expected two invalid input notices, got output:\n%s", text)
	}
	for _, want := range []string{"[1/2] /pics/a.png", "88.4%", "https://board.test/posts/200"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}

	wantOpened := []string{"/pics/a.png", "https://board.test/posts/100", "https://board.test/posts/200"}
	if strings.Join(launcher.opened, " ") != strings.Join(wantOpened, " ") {
		t.Fatalf("opened %v, want %v", launcher.opened, wantOpened)
	}
}

func TestTerminalEndOfInputQuits(t *testing.T) {
	var out strings.Builder
	term := review.NewTerminal(strings.NewReader(""), &out, nil, postURL)

	decision, err := term.Present(context.Background(), sampleItem())
	if err != nil {
		t.Fatalf("Present: %v", err)
	}
	if decision.Action != review.ActionQuit {
		t.Fatalf("expected quit on EOF, got %+v", decision)
	}
}

func TestCommandLauncherEmptyCommandIsNoop(t *testing.T) {
	if err := (review.CommandLauncher{}).Open(context.Background(), "/pics/a.png"); err != nil {
		t.Fatalf("Open: %v", err)
	}
}

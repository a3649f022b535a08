package search

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Title: A\n\nContent: B\n", "What is A?")
	want := Instructions + "\n\nContext:\nTitle: A\n\nContent: B\n\n\nQuestion:\nWhat is A?"
	if got != want {
		t.Errorf("BuildPrompt() =\n%q\nwant\n%q", got, want)
	}
	if !strings.HasPrefix(got, "You are an expert at reading comprehension.") {
		t.Error("prompt should start with the instruction block")
	}
}

func TestInstructions(t *testing.T) {
	for _, phrase := range []string{
		"ignore all information unrelated to the question",
		"short and concisely",
		"multiple notes",
		"cold and professional tone",
		NoInformation,
	} {
		if !strings.Contains(Instructions, phrase) {
			t.Errorf("instructions missing %q", phrase)
		}
	}
}

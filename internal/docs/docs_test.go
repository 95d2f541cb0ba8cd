package docs

import (
	"strings"
	"testing"
)

func TestAll_ReturnsTopics(t *testing.T) {
	topics := All()
	if len(topics) == 0 {
		t.Fatal("All() returned no topics")
	}
	if topics[0].Name != "quickstart" {
		t.Errorf("first topic = %q, want %q", topics[0].Name, "quickstart")
	}
}

func TestAll_NoDuplicateNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, topic := range All() {
		if seen[topic.Name] {
			t.Errorf("duplicate topic name: %q", topic.Name)
		}
		seen[topic.Name] = true
	}
}

func TestAll_AllFieldsPopulated(t *testing.T) {
	for _, topic := range All() {
		if topic.Name == "" {
			t.Error("topic has empty Name")
		}
		if topic.Title == "" {
			t.Errorf("topic %q has empty Title", topic.Name)
		}
		if topic.Summary == "" {
			t.Errorf("topic %q has empty Summary", topic.Name)
		}
		if !strings.HasPrefix(topic.Content, topic.Title+"\n") {
			t.Errorf("topic %q content does not start with its title", topic.Name)
		}
	}
}

func TestGet_Found(t *testing.T) {
	for _, name := range []string{"quickstart", "format", "matching", "streaming", "storage", "config"} {
		topic, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%s) error: %v", name, err)
		}
		if topic.Name != name {
			t.Errorf("Name = %q, want %q", topic.Name, name)
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := Get("nonexistent")
	if err == nil || !strings.Contains(err.Error(), "sitepatch docs") {
		t.Fatalf("Get(nonexistent) error = %v", err)
	}
}

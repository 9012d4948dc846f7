package docstore

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleContent() json.RawMessage {
	return json.RawMessage(`{
		"blocks": [
			{
				"id": "sec-1",
				"type": "section",
				"text": "Synopsis",
				"children": [
					{"id": "p-1", "type": "paragraph", "text": "Study overview."},
					{"id": "ref-1", "type": "reference", "text": "sec-2"}
				]
			},
			{
				"id": "sec-2",
				"type": "section",
				"text": "Objectives",
				"children": [
					{"id": "p-2", "type": "paragraph", "text": "Primary endpoint."}
				]
			}
		]
	}`)
}

func TestParseBlocks(t *testing.T) {
	tests := []struct {
		name      string
		content   json.RawMessage
		wantErr   bool
		wantCount int
	}{
		{
			name:      "valid block tree",
			content:   sampleContent(),
			wantCount: 2,
		},
		{
			name:      "empty payload yields empty tree",
			content:   nil,
			wantCount: 0,
		},
		{
			name:      "missing blocks key yields empty tree",
			content:   json.RawMessage(`{}`),
			wantCount: 0,
		},
		{
			name:    "malformed JSON",
			content: json.RawMessage(`{"blocks": [`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseBlocks(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(doc.Blocks) != tt.wantCount {
				t.Errorf("got %d top-level blocks, want %d", len(doc.Blocks), tt.wantCount)
			}
		})
	}
}

func TestBlockDocument_Walk(t *testing.T) {
	doc, err := ParseBlocks(sampleContent())
	if err != nil {
		t.Fatalf("ParseBlocks: %v", err)
	}

	var order []string
	doc.Walk(func(b *Block) bool {
		order = append(order, b.ID)
		return true
	})

	want := []string{"sec-1", "p-1", "ref-1", "sec-2", "p-2"}
	if len(order) != len(want) {
		t.Fatalf("visited %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, order[i], want[i])
		}
	}

	// Returning false stops the walk
	var visited int
	doc.Walk(func(b *Block) bool {
		visited++
		return b.ID != "p-1"
	})
	if visited != 2 {
		t.Errorf("walk visited %d blocks after stop, want 2", visited)
	}
}

func TestBlockDocument_FindBlock(t *testing.T) {
	doc, err := ParseBlocks(sampleContent())
	if err != nil {
		t.Fatalf("ParseBlocks: %v", err)
	}

	b := doc.FindBlock("p-2")
	if b == nil {
		t.Fatal("FindBlock returned nil for nested block")
	}
	if b.Text != "Primary endpoint." {
		t.Errorf("got text %q", b.Text)
	}

	if doc.FindBlock("missing") != nil {
		t.Error("FindBlock returned non-nil for unknown id")
	}
}

func TestBlockDocument_ReplaceBlockText(t *testing.T) {
	doc, err := ParseBlocks(sampleContent())
	if err != nil {
		t.Fatalf("ParseBlocks: %v", err)
	}

	if !doc.ReplaceBlockText("p-1", "Revised overview.") {
		t.Fatal("ReplaceBlockText reported block not found")
	}

	// Mutation must survive a marshal round-trip
	data, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	reparsed, err := ParseBlocks(data)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if got := reparsed.FindBlock("p-1").Text; got != "Revised overview." {
		t.Errorf("after round-trip got text %q", got)
	}

	if doc.ReplaceBlockText("missing", "x") {
		t.Error("ReplaceBlockText reported success for unknown id")
	}
}

func TestBlockDocument_SectionTitles(t *testing.T) {
	doc, err := ParseBlocks(sampleContent())
	if err != nil {
		t.Fatalf("ParseBlocks: %v", err)
	}

	titles := doc.SectionTitles()
	if len(titles) != 2 || titles[0] != "Synopsis" || titles[1] != "Objectives" {
		t.Errorf("got titles %v", titles)
	}
}

func TestBlockDocument_PlainText(t *testing.T) {
	doc, err := ParseBlocks(sampleContent())
	if err != nil {
		t.Fatalf("ParseBlocks: %v", err)
	}

	text := doc.PlainText()
	if !strings.Contains(text, "Study overview.") {
		t.Errorf("plain text missing paragraph content: %q", text)
	}
	// Reference blocks carry ids, not prose
	if strings.Contains(text, "sec-2") {
		t.Errorf("plain text includes reference target id: %q", text)
	}
}

package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Block is one node in a document's content tree. The core treats version
// content as an opaque blob except for targeted block edits, which need the
// id/text fields, and consistency rules, which read type/text.
type Block struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"` // section, paragraph, table, reference, ...
	Text     string  `json:"text,omitempty"`
	Children []Block `json:"children,omitempty"`
}

// BlockTypeSection marks a top-level named section. BlockTypeReference
// blocks carry the id of another block in Text.
const (
	BlockTypeSection   = "section"
	BlockTypeParagraph = "paragraph"
	BlockTypeReference = "reference"
)

// BlockDocument is the parsed form of a version's content payload.
type BlockDocument struct {
	Blocks []Block `json:"blocks"`
}

// ParseBlocks decodes a version content payload into a block tree.
func ParseBlocks(content json.RawMessage) (*BlockDocument, error) {
	if len(content) == 0 {
		return &BlockDocument{Blocks: []Block{}}, nil
	}
	var doc BlockDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse block content: %w", err)
	}
	if doc.Blocks == nil {
		doc.Blocks = []Block{}
	}
	return &doc, nil
}

// EmptyContent returns the serialized form of a document with no blocks.
func EmptyContent() json.RawMessage {
	return json.RawMessage(`{"blocks":[]}`)
}

// Marshal serializes the block tree back into a content payload.
func (d *BlockDocument) Marshal() (json.RawMessage, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("serialize block content: %w", err)
	}
	return data, nil
}

// Walk visits every block depth-first in document order. Walking stops when
// fn returns false.
func (d *BlockDocument) Walk(fn func(b *Block) bool) {
	walkBlocks(d.Blocks, fn)
}

func walkBlocks(blocks []Block, fn func(b *Block) bool) bool {
	for i := range blocks {
		if !fn(&blocks[i]) {
			return false
		}
		if !walkBlocks(blocks[i].Children, fn) {
			return false
		}
	}
	return true
}

// FindBlock returns the block with the given id, or nil. The returned
// pointer aliases the tree, so mutations through it are visible on Marshal.
func (d *BlockDocument) FindBlock(id string) *Block {
	var found *Block
	d.Walk(func(b *Block) bool {
		if b.ID == id {
			found = b
			return false
		}
		return true
	})
	return found
}

// ReplaceBlockText sets the text of the block with the given id and reports
// whether the block was found.
func (d *BlockDocument) ReplaceBlockText(id, text string) bool {
	b := d.FindBlock(id)
	if b == nil {
		return false
	}
	b.Text = text
	return true
}

// SectionTitles returns the text of every section block in document order.
func (d *BlockDocument) SectionTitles() []string {
	var titles []string
	d.Walk(func(b *Block) bool {
		if b.Type == BlockTypeSection {
			titles = append(titles, b.Text)
		}
		return true
	})
	return titles
}

// PlainText flattens all block text into one newline-joined string.
func (d *BlockDocument) PlainText() string {
	var parts []string
	d.Walk(func(b *Block) bool {
		if b.Text != "" && b.Type != BlockTypeReference {
			parts = append(parts, b.Text)
		}
		return true
	})
	return strings.Join(parts, "\n")
}

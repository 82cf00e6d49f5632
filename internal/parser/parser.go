// Package parser wraps the tree-sitter HCL grammar behind the small surface
// the rest of the tooling needs: syntax errors with positions, top-level
// block structure, and input-reference extraction.
package parser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/hcl"

	"runedoc/internal/location"
)

// SyntaxError is a parse problem message with its source span.
type SyntaxError = location.Located[string]

// Block is a top-level block of a runbook: action, variable, signer, output
// or flow. Namespace is the addon namespace of an action's type label
// ("evm::deploy_contract" -> "evm"), empty for other blocks.
type Block struct {
	Type      string
	Name      string
	TypeLabel string
	Namespace string
	Span      location.Span
}

// Parser turns runbook source into Documents.
type Parser struct {
	parser *sitter.Parser
	mu     sync.Mutex
}

// NewParser creates a parser for the runbook grammar.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(hcl.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses src into a Document. The Document owns the tree and must be
// closed by the caller.
func (p *Parser) Parse(ctx context.Context, src []byte) (*Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.parser == nil {
		return nil, fmt.Errorf("parser is closed")
	}
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{tree: tree, src: src}, nil
}

// Close releases the underlying parser.
func (p *Parser) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Parse is a convenience wrapper for one-shot parses.
func Parse(ctx context.Context, src []byte) (*Document, error) {
	p := NewParser()
	defer p.Close()
	return p.Parse(ctx, src)
}

// Document is a parsed runbook.
type Document struct {
	tree *sitter.Tree
	src  []byte
}

// Close releases the parse tree.
func (d *Document) Close() {
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
}

// SyntaxErrors walks the tree and returns every error or missing node in
// source order.
func (d *Document) SyntaxErrors() []SyntaxError {
	var errs []SyntaxError
	collectErrors(d.tree.RootNode(), d.src, &errs)
	return errs
}

func collectErrors(node *sitter.Node, src []byte, errs *[]SyntaxError) {
	if node.IsError() {
		snippet := strings.TrimSpace(node.Content(src))
		if len(snippet) > 40 {
			snippet = snippet[:40] + "..."
		}
		*errs = append(*errs, location.At(
			fmt.Sprintf("syntax error near %q", snippet), nodeSpan(node)))
		return
	}
	if node.IsMissing() {
		// Missing nodes have zero width.
		*errs = append(*errs, location.At(
			fmt.Sprintf("missing %s", node.Type()),
			location.PointSpan(nodeSpan(node).Start)))
		return
	}
	if !node.HasError() {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectErrors(node.Child(i), src, errs)
	}
}

// Blocks returns the top-level blocks of the runbook in source order.
func (d *Document) Blocks() []Block {
	body := d.tree.RootNode()
	// The grammar wraps the file in a single body node.
	if body.NamedChildCount() == 1 && body.NamedChild(0).Type() == "body" {
		body = body.NamedChild(0)
	}

	var blocks []Block
	for i := 0; i < int(body.NamedChildCount()); i++ {
		node := body.NamedChild(i)
		if node.Type() != "block" {
			continue
		}
		blocks = append(blocks, d.blockFromNode(node))
	}
	return blocks
}

func (d *Document) blockFromNode(node *sitter.Node) Block {
	block := Block{Span: nodeSpan(node)}
	var labels []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier":
			if block.Type == "" {
				block.Type = child.Content(d.src)
			}
		case "string_lit":
			labels = append(labels, strings.Trim(child.Content(d.src), `"`))
		}
	}
	if len(labels) > 0 {
		block.Name = labels[0]
	}
	if len(labels) > 1 {
		block.TypeLabel = labels[1]
		if idx := strings.Index(block.TypeLabel, "::"); idx > 0 {
			block.Namespace = block.TypeLabel[:idx]
		}
	}
	return block
}

// InputRefs returns every input reference in the document, in source order.
func (d *Document) InputRefs() []InputRef {
	return ScanInputRefs(string(d.src))
}

func nodeSpan(node *sitter.Node) location.Span {
	start, end := node.StartPoint(), node.EndPoint()
	return location.Span{
		Start: location.Position{Line: start.Row, Column: start.Column},
		End:   location.Position{Line: end.Row, Column: end.Column},
	}
}

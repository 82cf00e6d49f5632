package parser_test

import (
	"context"
	"testing"

	"runedoc/internal/parser"
)

func TestParseCleanRunbook(t *testing.T) {
	doc, err := parser.Parse(context.Background(), []byte(sampleRunbook))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer doc.Close()

	if errs := doc.SyntaxErrors(); len(errs) != 0 {
		t.Errorf("clean runbook should have no syntax errors, got %+v", errs)
	}

	refs := doc.InputRefs()
	if len(refs) != 2 {
		t.Errorf("got %d input refs, want 2", len(refs))
	}
}

func TestParseReportsSyntaxErrors(t *testing.T) {
	src := []byte("action \"deploy\" \"evm::call\" {\n  address = \n")
	doc, err := parser.Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer doc.Close()

	errs := doc.SyntaxErrors()
	if len(errs) == 0 {
		t.Fatal("expected at least one syntax error")
	}
	if errs[0].Value == "" {
		t.Error("syntax error should carry a message")
	}
}

func TestBlocks(t *testing.T) {
	src := []byte(`variable "chain_id" {
  value = 1
}

action "deploy" "evm::deploy_contract" {
  address = inputs.contract_address
}

output "result" {
  value = action.deploy.tx_hash
}
`)
	doc, err := parser.Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer doc.Close()

	blocks := doc.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3: %+v", len(blocks), blocks)
	}

	if blocks[0].Type != "variable" || blocks[0].Name != "chain_id" {
		t.Errorf("first block = %+v", blocks[0])
	}

	deploy := blocks[1]
	if deploy.Type != "action" || deploy.Name != "deploy" {
		t.Errorf("action block = %+v", deploy)
	}
	if deploy.TypeLabel != "evm::deploy_contract" || deploy.Namespace != "evm" {
		t.Errorf("action type label = %q namespace = %q", deploy.TypeLabel, deploy.Namespace)
	}

	if blocks[2].Type != "output" || blocks[2].Namespace != "" {
		t.Errorf("output block = %+v", blocks[2])
	}
}

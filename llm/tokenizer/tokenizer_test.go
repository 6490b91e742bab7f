package tokenizer

import "testing"

func TestEstimator_CountTokens(t *testing.T) {
	t.Parallel()

	e := Estimator{}

	count, err := e.CountTokens("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Fatalf("empty text: expected 0 tokens, got %d", count)
	}

	count, err = e.CountTokens("hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("short text must round up to 1 token, got %d", count)
	}

	count, err = e.CountTokens("twelve chars")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 tokens for 12 chars, got %d", count)
	}
}

func TestNewTiktoken_DefaultEncoding(t *testing.T) {
	t.Parallel()

	tk := NewTiktoken("")
	if tk.encoding != "cl100k_base" {
		t.Fatalf("expected default encoding cl100k_base, got %s", tk.encoding)
	}
}

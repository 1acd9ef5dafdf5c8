package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// TokenizedInput is tokenizer output ready for model inference.
type TokenizedInput struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
}

// wordpieceTokenizer is a basic WordPiece tokenizer for BERT-style sentence
// embedding models. It falls back to a minimal built-in vocabulary when no
// vocabulary file is available, so the provider degrades gracefully rather
// than failing to start.
type wordpieceTokenizer struct {
	vocab map[string]int64

	clsTokenID int64
	sepTokenID int64
	padTokenID int64
	unkTokenID int64
}

func newWordpieceTokenizer(vocabPath string) (*wordpieceTokenizer, error) {
	t := &wordpieceTokenizer{vocab: make(map[string]int64)}

	if vocabPath == "" {
		t.initMinimalVocab()
		return t, nil
	}

	file, err := os.Open(vocabPath)
	if err != nil {
		t.initMinimalVocab()
		return t, nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var id int64
	for scanner.Scan() {
		t.vocab[scanner.Text()] = id
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}

	t.setSpecialTokenIDs()
	return t, nil
}

func (t *wordpieceTokenizer) initMinimalVocab() {
	minimal := []string{
		"[PAD]", "[UNK]", "[CLS]", "[SEP]", "[MASK]",
		"the", "a", "an", "is", "are", "was", "were", "to", "of", "in", "for",
		"on", "with", "at", "by", "from", "as", "or", "and", "but", "not",
		"this", "that", "it", "be", "have", "has", "had", "do", "does", "did",
		"will", "would", "could", "should", "can", "may", "might", "must",
		"code", "file", "function", "class", "method", "variable", "error",
		"bug", "fix", "debug", "test", "testing", "data", "image", "edit",
		"parse", "csv", "document", "skill", "search", "query", "upload",
		"##s", "##ed", "##ing", "##er", "##ly", "##tion", "##ment",
	}
	for i, tok := range minimal {
		t.vocab[tok] = int64(i)
	}
	t.setSpecialTokenIDs()
}

func (t *wordpieceTokenizer) setSpecialTokenIDs() {
	if id, ok := t.vocab["[CLS]"]; ok {
		t.clsTokenID = id
	}
	if id, ok := t.vocab["[SEP]"]; ok {
		t.sepTokenID = id
	}
	if id, ok := t.vocab["[PAD]"]; ok {
		t.padTokenID = id
	}
	if id, ok := t.vocab["[UNK]"]; ok {
		t.unkTokenID = id
	}
	_ = t.padTokenID
}

// Tokenize converts text into token IDs, truncated to maxLength. Shorter
// inputs are not padded.
func (t *wordpieceTokenizer) Tokenize(text string, maxLength int) *TokenizedInput {
	text = strings.ToLower(text)
	text = normalizeText(text)
	words := strings.Fields(text)

	tokens := []int64{t.clsTokenID}
	for _, word := range words {
		tokens = append(tokens, t.tokenizeWord(word)...)
		if len(tokens) >= maxLength-1 {
			break
		}
	}
	tokens = append(tokens, t.sepTokenID)

	if len(tokens) > maxLength {
		tokens = append(tokens[:maxLength-1], t.sepTokenID)
	}

	seqLen := len(tokens)
	attentionMask := make([]int64, seqLen)
	tokenTypeIDs := make([]int64, seqLen)
	for i := range attentionMask {
		attentionMask[i] = 1
	}

	return &TokenizedInput{InputIDs: tokens, AttentionMask: attentionMask, TokenTypeIDs: tokenTypeIDs}
}

func normalizeText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	var b strings.Builder
	for _, r := range text {
		if unicode.IsPunct(r) {
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func (t *wordpieceTokenizer) tokenizeWord(word string) []int64 {
	if id, ok := t.vocab[word]; ok {
		return []int64{id}
	}

	var tokens []int64
	start := 0
	for start < len(word) {
		end := len(word)
		found := false
		for end > start {
			substr := word[start:end]
			if start > 0 {
				substr = "##" + substr
			}
			if id, ok := t.vocab[substr]; ok {
				tokens = append(tokens, id)
				found = true
				break
			}
			end--
		}
		if !found {
			tokens = append(tokens, t.unkTokenID)
			start++
		} else {
			start = end
		}
	}
	if len(tokens) == 0 {
		return []int64{t.unkTokenID}
	}
	return tokens
}

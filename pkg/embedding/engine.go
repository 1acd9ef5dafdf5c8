package embedding

import (
	"fmt"
	"math"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/docker/agent-skills/pkg/errs"
)

// EmbeddingDimension is the output dimension of the bundled sentence model.
const EmbeddingDimension = 384

// MaxSequenceLength bounds tokenized input length.
const MaxSequenceLength = 256

// engine wraps a single loaded ONNX Runtime session. It is not safe for
// concurrent Run calls against the same session per the ONNX Runtime docs,
// so Provider serializes inference with a dedicated lock even after the
// one-time load lock has been released.
type engine struct {
	session   *ort.DynamicAdvancedSession
	tokenizer *wordpieceTokenizer
	dimension int
}

func loadEngine(modelPath, vocabPath, sharedLibPath string) (*engine, error) {
	if sharedLibPath != "" {
		ort.SetSharedLibraryPath(sharedLibPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("%w: initializing onnxruntime: %w", errs.ErrEmbedFailed, err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: session options: %w", errs.ErrEmbedFailed, err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: loading model %s: %w", errs.ErrEmbedFailed, modelPath, err)
	}

	tokenizer, err := newWordpieceTokenizer(vocabPath)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("%w: tokenizer: %w", errs.ErrEmbedFailed, err)
	}

	return &engine{session: session, tokenizer: tokenizer, dimension: EmbeddingDimension}, nil
}

func (e *engine) embed(text string) ([]float32, error) {
	tokens := e.tokenizer.Tokenize(text, MaxSequenceLength)
	return e.runInference(tokens)
}

func (e *engine) runInference(tokens *TokenizedInput) ([]float32, error) {
	seqLen := int64(len(tokens.InputIDs))

	inputIDs, err := ort.NewTensor(ort.NewShape(1, seqLen), tokens.InputIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: input_ids tensor: %w", errs.ErrEmbedFailed, err)
	}
	defer inputIDs.Destroy()

	attentionMask, err := ort.NewTensor(ort.NewShape(1, seqLen), tokens.AttentionMask)
	if err != nil {
		return nil, fmt.Errorf("%w: attention_mask tensor: %w", errs.ErrEmbedFailed, err)
	}
	defer attentionMask.Destroy()

	tokenTypeIDs, err := ort.NewTensor(ort.NewShape(1, seqLen), tokens.TokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: token_type_ids tensor: %w", errs.ErrEmbedFailed, err)
	}
	defer tokenTypeIDs.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, seqLen, int64(e.dimension)))
	if err != nil {
		return nil, fmt.Errorf("%w: output tensor: %w", errs.ErrEmbedFailed, err)
	}
	defer output.Destroy()

	if err := e.session.Run(
		[]ort.ArbitraryTensor{inputIDs, attentionMask, tokenTypeIDs},
		[]ort.ArbitraryTensor{output},
	); err != nil {
		return nil, fmt.Errorf("%w: inference: %w", errs.ErrEmbedFailed, err)
	}

	pooled := meanPool(output.GetData(), tokens.AttentionMask, int(seqLen), e.dimension)
	return l2Normalize(pooled), nil
}

func (e *engine) close() {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
}

func meanPool(hidden []float32, attentionMask []int64, seqLen, dim int) []float32 {
	out := make([]float32, dim)
	var weight float32
	for i := 0; i < seqLen; i++ {
		if attentionMask[i] == 1 {
			for j := 0; j < dim; j++ {
				out[j] += hidden[i*dim+j]
			}
			weight++
		}
	}
	if weight > 0 {
		for j := range out {
			out[j] /= weight
		}
	}
	return out
}

func l2Normalize(v []float32) []float32 {
	var sumSq float32
	for _, x := range v {
		sumSq += x * x
	}
	norm := float32(math.Sqrt(float64(sumSq)))
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

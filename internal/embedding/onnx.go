//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hyperjump/apiquery/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs a sentence-embedding model through ONNX Runtime. It requires CGO and
// the onnxruntime shared library. Inference is serialized; results are cached by text.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	dimensions int
	maxTokens  int
	cache      *EmbeddingCache
	tokenizer  Tokenizer

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
	mu            sync.Mutex
}

// ortEnv guards the process-wide runtime environment.
var ortEnv struct {
	once sync.Once
	err  error
}

// NewONNXEmbedder loads the model at modelPath. The model must take input_ids,
// attention_mask and token_type_ids of shape [1, maxTokens] and produce "output" of
// shape [1, dimensions].
func NewONNXEmbedder(modelPath string, dimensions, maxTokens, cacheSize int) (*ONNXEmbedder, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("onnx model: %w", err)
	}
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	if maxTokens <= 2 {
		maxTokens = 256
	}
	ortEnv.once.Do(func() { ortEnv.err = ort.InitializeEnvironment() })
	if ortEnv.err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", ortEnv.err)
	}

	e := &ONNXEmbedder{
		dimensions: dimensions,
		maxTokens:  maxTokens,
		cache:      NewEmbeddingCache(cacheSize),
		tokenizer:  &SimpleTokenizer{},
	}
	if err := e.allocate(); err != nil {
		_ = e.Close()
		return nil, err
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{e.inputIDs, e.attentionMask, e.tokenTypeIDs},
		[]ort.ArbitraryTensor{e.output},
		nil,
	)
	if err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	e.session = session
	return e, nil
}

func (e *ONNXEmbedder) allocate() error {
	shape := ort.NewShape(1, int64(e.maxTokens))
	var err error
	if e.inputIDs, err = ort.NewEmptyTensor[int64](shape); err != nil {
		return fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if e.attentionMask, err = ort.NewEmptyTensor[int64](shape); err != nil {
		return fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	if e.tokenTypeIDs, err = ort.NewEmptyTensor[int64](shape); err != nil {
		return fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	if e.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(e.dimensions))); err != nil {
		return fmt.Errorf("failed to create output tensor: %w", err)
	}
	return nil
}

// Embed returns the normalized embedding for text.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.inputIDs.GetData(), ids)
	copy(e.attentionMask.GetData(), mask)
	copy(e.tokenTypeIDs.GetData(), types)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	emb := append([]float32(nil), e.output.GetData()[:e.dimensions]...)
	utils.NormalizeL2(emb)
	e.cache.Set(text, emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedAll(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	destroy(e.inputIDs)
	destroy(e.attentionMask)
	destroy(e.tokenTypeIDs)
	destroy(e.output)
	e.inputIDs, e.attentionMask, e.tokenTypeIDs, e.output = nil, nil, nil, nil
	return err
}

func destroy[T ort.TensorData](t *ort.Tensor[T]) {
	if t != nil {
		_ = t.Destroy()
	}
}

// Package llm adapts the model-serving client (internal/intelligence/common,
// gRPC-backed per the teacher's google.golang.org/grpc stack) to the
// embedding, cross-encoder reranker, and chat-completion ports the
// retrieval and orchestrator application services depend on.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/russellmiller49/ip-assist-lite/internal/intelligence/common"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

// Embedder is "embedding model interface (consumed)":
// Encode(ctx, texts) -> ([][]float32, error), deterministic.
type Embedder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingClient calls a served embedding model over the shared
// ServingClient, JSON-encoding the text batch as the predict request body
// and decoding a JSON array-of-arrays response.
type EmbeddingClient struct {
	serving common.ServingClient
	modelName string
}

// NewEmbeddingClient wires an EmbeddingClient against modelName, the served
// embedding model's identifier (e.g. "ip-assist-query-encoder").
func NewEmbeddingClient(serving common.ServingClient, modelName string) *EmbeddingClient {
	return &EmbeddingClient{serving: serving, modelName: modelName}
}

type embeddingRequestBody struct {
	Texts []string `json:"texts"`
}

// Encode batches texts into a single predict call and decodes the
// resulting vectors in request order.
func (c *EmbeddingClient) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embeddingRequestBody{Texts: texts})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMBadResponse, "failed to encode embedding request")
	}

	resp, err := c.serving.Predict(ctx, &common.PredictRequest{
			ModelName: c.modelName,
			InputName: "texts",
			InputData: body,
			InputFormat: common.FormatJSON,
			OutputNames: []string{"embeddings"},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMUnavailable, "embedding model unavailable")
	}

	raw, ok := resp.Outputs["embeddings"]
	if !ok {
		return nil, errors.New(errors.ErrCodeLLMBadResponse, "embedding response missing embeddings output")
	}
	var vectors [][]float32
	if err := json.Unmarshal(raw, &vectors); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMBadResponse, "malformed embedding response")
	}
	if len(vectors) != len(texts) {
		return nil, errors.New(errors.ErrCodeLLMBadResponse, fmt.Sprintf("expected %d embedding vectors, got %d", len(texts), len(vectors)))
	}
	return vectors, nil
}

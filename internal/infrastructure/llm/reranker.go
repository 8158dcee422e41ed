package llm

import (
	"context"
	"encoding/json"

	"github.com/russellmiller49/ip-assist-lite/internal/intelligence/common"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

// RerankerClient implements internal/application/retrieval.Reranker :
// scores (query, text) pairs independently via the served cross-encoder
// model, batched to BatchSize.
type RerankerClient struct {
	serving common.ServingClient
	modelName string
	batchSize int
}

// NewRerankerClient wires a RerankerClient. batchSize <= 0 defaults to 32.
func NewRerankerClient(serving common.ServingClient, modelName string, batchSize int) *RerankerClient {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &RerankerClient{serving: serving, modelName: modelName, batchSize: batchSize}
}

type rerankRequestBody struct {
	Query string `json:"query"`
	Texts []string `json:"texts"`
}

// Score scores every text against query, batched to s.batchSize, and
// returns scores in the same order as texts.
func (c *RerankerClient) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		scores, err := c.scoreBatch(ctx, query, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, scores...)
	}
	return out, nil
}

func (c *RerankerClient) scoreBatch(ctx context.Context, query string, texts []string) ([]float64, error) {
	body, err := json.Marshal(rerankRequestBody{Query: query, Texts: texts})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMBadResponse, "failed to encode rerank request")
	}
	resp, err := c.serving.Predict(ctx, &common.PredictRequest{
			ModelName: c.modelName,
			InputName: "pairs",
			InputData: body,
			InputFormat: common.FormatJSON,
			OutputNames: []string{"scores"},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMUnavailable, "reranker model unavailable")
	}
	raw, ok := resp.Outputs["scores"]
	if !ok {
		return nil, errors.New(errors.ErrCodeLLMBadResponse, "rerank response missing scores output")
	}
	var scores []float64
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMBadResponse, "malformed rerank response")
	}
	if len(scores) != len(texts) {
		return nil, errors.New(errors.ErrCodeLLMBadResponse, "rerank response length mismatch")
	}
	return scores, nil
}

package llm

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/russellmiller49/ip-assist-lite/internal/application/orchestrator"
	"github.com/russellmiller49/ip-assist-lite/internal/intelligence/common"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

// ChatClient implements internal/application/orchestrator.LLMClient (// synthesize): Generate(ctx, messages, maxOutputTokens) ->
// ({Text, ToolCalls, Raw}, error), routed through the shared ServingClient
// so the LLM backend is swappable the same way the embedding and reranker
// models are.
type ChatClient struct {
	serving common.ServingClient
	modelName string
}

// NewChatClient wires a ChatClient against modelName, the served chat
// model's identifier.
func NewChatClient(serving common.ServingClient, modelName string) *ChatClient {
	return &ChatClient{serving: serving, modelName: modelName}
}

type chatMessage struct {
	Role string `json:"role"`
	Content string `json:"content"`
}

type chatRequestBody struct {
	Messages []chatMessage `json:"messages"`
}

type chatResponseBody struct {
	Text string `json:"text"`
	ToolCalls []struct {
		Name string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"tool_calls"`
}

// Generate sends messages to the served chat model and decodes its
// {text, tool_calls} response, preserving the raw predict response for
// audit logging.
func (c *ChatClient) Generate(ctx context.Context, messages []orchestrator.Message, maxOutputTokens int) (orchestrator.GenerateResult, error) {
	reqMessages := make([]chatMessage, len(messages))
	for i, m := range messages {
		reqMessages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	body, err := json.Marshal(chatRequestBody{Messages: reqMessages})
	if err != nil {
		return orchestrator.GenerateResult{}, errors.Wrap(err, errors.ErrCodeLLMBadResponse, "failed to encode chat request")
	}

	resp, err := c.serving.Predict(ctx, &common.PredictRequest{
			ModelName: c.modelName,
			InputName: "messages",
			InputData: body,
			InputFormat: common.FormatJSON,
			OutputNames: []string{"completion"},
			Metadata: map[string]string{"max_output_tokens": strconv.Itoa(maxOutputTokens)},
	})
	if err != nil {
		return orchestrator.GenerateResult{}, errors.Wrap(err, errors.ErrCodeLLMUnavailable, "chat model unavailable")
	}

	raw, ok := resp.Outputs["completion"]
	if !ok {
		return orchestrator.GenerateResult{}, errors.New(errors.ErrCodeLLMBadResponse, "chat response missing completion output")
	}
	var decoded chatResponseBody
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return orchestrator.GenerateResult{}, errors.Wrap(err, errors.ErrCodeLLMBadResponse, "malformed chat response")
	}

	toolCalls := make([]orchestrator.ToolCall, len(decoded.ToolCalls))
	for i, tc := range decoded.ToolCalls {
		toolCalls[i] = orchestrator.ToolCall{Name: tc.Name, Arguments: tc.Arguments}
	}

	return orchestrator.GenerateResult{Text: decoded.Text, ToolCalls: toolCalls, Raw: raw}, nil
}

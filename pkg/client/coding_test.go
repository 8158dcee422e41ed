package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodingClient_Code_Success(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/code", r.URL.Path)
		var req CodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.NoteText)

		resp := CodeBundle{
			PrimaryCPTs: []string{"31653"},
			KBVersion:   "kb-v1",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
	c := newTestClient(t, handler)

	resp, err := c.Coding().Code(context.Background(), &CodeRequest{NoteText: "convex EBUS-TBNA of stations 4R, 7, 11L"})
	require.NoError(t, err)
	assert.Equal(t, []string{"31653"}, resp.PrimaryCPTs)
	assert.Equal(t, "kb-v1", resp.KBVersion)
}

func TestCodingClient_Code_RequiresNoteText(t *testing.T) {
	c, _ := NewClient("http://api.example.com", "key")
	_, err := c.Coding().Code(context.Background(), &CodeRequest{})
	assert.Error(t, err)
}

func TestCodingClient_Code_NilRequest(t *testing.T) {
	c, _ := NewClient("http://api.example.com", "key")
	_, err := c.Coding().Code(context.Background(), nil)
	assert.Error(t, err)
}

func TestCodingClient_Code_WithAgeYears(t *testing.T) {
	age := 8
	handler := func(w http.ResponseWriter, r *http.Request) {
		var req CodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.AgeYears)
		assert.Equal(t, 8, *req.AgeYears)
		json.NewEncoder(w).Encode(CodeBundle{})
	}
	c := newTestClient(t, handler)

	_, err := c.Coding().Code(context.Background(), &CodeRequest{NoteText: "note", AgeYears: &age})
	require.NoError(t, err)
}

package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lchampz/saas-bakery/internal/logger"
)

var stock = []Product{
	{Name: "Farinha de Trigo", Unit: "g", PricePerGram: 0.005},
	{Name: "Açúcar", Unit: "g", PricePerGram: 0.004},
	{Name: "Ovos", Unit: "un", PricePerGram: 0.5},
	{Name: "Manteiga", Unit: "kg", PricePerGram: 0.03},
	{Name: "Leite", Unit: "ml"},
	{Name: "Fermento", Unit: "g", PricePerGram: 0.02},
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"plain", `{"name":"Bolo"}`, `{"name":"Bolo"}`, false},
		{"fenced", "```json\n{\"name\":\"Bolo\"}\n```", `{"name":"Bolo"}`, false},
		{"bare fence", "```\n{\"name\":\"Bolo\"}\n```", `{"name":"Bolo"}`, false},
		{"prose around", `Aqui está: {"name":"Bolo","ingredients":[]} bom apetite`, `{"name":"Bolo","ingredients":[]}`, false},
		{"no object", "desculpe, não sei", "", true},
		{"broken", `{"name": "Bolo"`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestParseRecipeNormalizes(t *testing.T) {
	reply := `{"ingredients":[
		{"productName":"Farinha de Trigo","amount":"300","unit":"g"},
		{"name":"manteiga","amount":0.1,"unit":"KG"},
		{"productName":"Ovos","amount":2}
	]}`

	recipe, err := parseRecipe(reply, stock)
	require.NoError(t, err)

	assert.Equal(t, defaultRecipeName, recipe.Name)
	assert.Equal(t, defaultInstructions, recipe.Instructions)
	require.Len(t, recipe.Ingredients, 3)
	assert.Equal(t, 300.0, recipe.Ingredients[0].Amount)
	assert.Equal(t, "manteiga", recipe.Ingredients[1].ProductName)
	assert.Equal(t, "kg", recipe.Ingredients[1].Unit)
	assert.Equal(t, "g", recipe.Ingredients[2].Unit)
	// 300×0.005 + 100g×0.03 + 2×0.5
	assert.Equal(t, 5.5, recipe.EstimatedCost)
}

func TestParseRecipeKeepsModelCost(t *testing.T) {
	recipe, err := parseRecipe(`{"name":"Pudim","estimatedCost":12.345,"instructions":"Asse"}`, stock)
	require.NoError(t, err)
	assert.Equal(t, "Pudim", recipe.Name)
	assert.Equal(t, 12.35, recipe.EstimatedCost)
	assert.Equal(t, "Asse", recipe.Instructions)
}

func TestFallbackIsDeterministic(t *testing.T) {
	req := Request{Description: "bolo de chocolate cremoso", Products: stock, ServingSize: 8}

	first := fallback(req)
	second := fallback(req)
	assert.Equal(t, first, second)

	assert.Equal(t, "bolo de chocolate", first.Name)
	require.Len(t, first.Ingredients, 5)
	assert.Equal(t, 250.0, first.Ingredients[0].Amount)
	assert.Equal(t, 200.0, first.Ingredients[1].Amount)
	assert.Equal(t, 2.0, first.Ingredients[2].Amount, "pieces")
	assert.Equal(t, 0.2, first.Ingredients[3].Amount, "kilos")
	assert.Contains(t, first.Instructions, "8 porção(ões)")
	// 250×0.005 + 200×0.004 + 2×0.5 + 200g×0.03
	assert.Equal(t, 9.05, first.EstimatedCost)
}

func TestFallbackEmptyDescription(t *testing.T) {
	got := fallback(Request{Description: "   "})
	assert.Equal(t, defaultRecipeName, got.Name)
	assert.Empty(t, got.Ingredients)
	assert.Zero(t, got.EstimatedCost)
}

func TestGenerateOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var body ollamaRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body.Stream)
		assert.Equal(t, "llama3.2:latest", body.Model)
		if assert.Len(t, body.Messages, 2) {
			assert.Contains(t, body.Messages[1].Content, "Farinha de Trigo (g)")
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{
				"role":    "assistant",
				"content": "```json\n{\"name\":\"Bolo Simples\",\"ingredients\":[{\"productName\":\"Açúcar\",\"amount\":100,\"unit\":\"g\"}]}\n```",
			},
		})
	}))
	defer srv.Close()

	a := New(Config{Provider: ProviderOllama, BaseURL: srv.URL, Model: "llama3.2:latest"}, logger.Nop())
	assert.Equal(t, ProviderOllama, a.Provider())

	got := a.Generate(context.Background(), Request{Description: "bolo", Products: stock})
	assert.Equal(t, "Bolo Simples", got.Name)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, 0.4, got.EstimatedCost)
}

func TestGenerateOpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body openAIRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "json_object", body.ResponseFormat["type"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"name":"Brigadeiro","ingredients":[],"estimatedCost":3}`}},
			},
		})
	}))
	defer srv.Close()

	a := New(Config{Provider: ProviderOpenAI, BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-3.5-turbo"}, logger.Nop())
	got := a.Generate(context.Background(), Request{Description: "doce"})
	assert.Equal(t, "Brigadeiro", got.Name)
	assert.Equal(t, 3.0, got.EstimatedCost)
}

func TestGenerateFallsBack(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer failing.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"content":"não consigo ajudar"}}`))
	}))
	defer garbage.Close()

	req := Request{Description: "torta de limão", Products: stock}
	want := fallback(req)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"disabled", Config{Provider: ProviderNone}},
		{"openai without key", Config{Provider: ProviderOpenAI, BaseURL: failing.URL}},
		{"http error", Config{Provider: ProviderOllama, BaseURL: failing.URL}},
		{"timeout", Config{Provider: ProviderOllama, BaseURL: slow.URL, Timeout: 50 * time.Millisecond}},
		{"not json", Config{Provider: ProviderOllama, BaseURL: garbage.URL}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.cfg, logger.Nop()).Generate(context.Background(), req)
			assert.Equal(t, want, got)
		})
	}
}

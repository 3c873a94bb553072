// Package assistant drafts recipes from a free-text description, using an LLM
// when one is configured and a deterministic local generator otherwise.
package assistant

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/lchampz/saas-bakery/internal/logger"
)

const systemPrompt = "Você é um chef de confeitaria especializado em criar receitas. " +
	"IMPORTANTE: Retorne APENAS um JSON válido, sem texto adicional antes ou depois. " +
	"O JSON deve seguir exatamente a estrutura solicitada."

// Product is what the model is told about one stock item
type Product struct {
	Name         string
	Unit         string
	PricePerGram float64
}

type Request struct {
	Description         string
	Products            []Product
	ServingSize         int
	DietaryRestrictions []string
}

func (r Request) servingSize() int {
	if r.ServingSize <= 0 {
		return 1
	}
	return r.ServingSize
}

type Ingredient struct {
	ProductName string  `json:"productName"`
	Amount      float64 `json:"amount"`
	Unit        string  `json:"unit"`
}

type Recipe struct {
	Name          string       `json:"name"`
	Ingredients   []Ingredient `json:"ingredients"`
	Instructions  string       `json:"instructions"`
	EstimatedCost float64      `json:"estimatedCost"`
}

type Assistant struct {
	cfg    Config
	model  chatModel
	logger *logger.Logger
}

func New(cfg Config, log *logger.Logger) *Assistant {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Assistant{
		cfg:    cfg,
		model:  newChatModel(cfg, &http.Client{}),
		logger: log,
	}
}

// Provider reports the backend in use, ProviderNone when only the fallback runs
func (a *Assistant) Provider() Provider {
	if a.model == nil {
		return ProviderNone
	}
	return a.cfg.Provider
}

// Generate never fails: any model error, timeout or unparsable reply falls back
// to the local generator.
func (a *Assistant) Generate(ctx context.Context, req Request) *Recipe {
	if a.model == nil {
		return fallback(req)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	a.logger.Info("🤖 Generating recipe", "provider", a.cfg.Provider, "model", a.cfg.Model)
	reply, err := a.model.Chat(ctx, systemPrompt, buildPrompt(req))
	if err != nil {
		a.logger.Warn("⚠️ Recipe model call failed, using fallback", "error", err)
		return fallback(req)
	}

	recipe, err := parseRecipe(reply, req.Products)
	if err != nil {
		a.logger.Warn("⚠️ Recipe model reply is not valid JSON, using fallback",
			"error", err, "reply", truncate(reply, 200))
		return fallback(req)
	}
	return recipe
}

func buildPrompt(req Request) string {
	var products strings.Builder
	for _, p := range req.Products {
		fmt.Fprintf(&products, "- %s (%s)\n", p.Name, p.Unit)
	}
	restrictions := "Nenhuma"
	if len(req.DietaryRestrictions) > 0 {
		restrictions = strings.Join(req.DietaryRestrictions, ", ")
	}
	serving := req.servingSize()

	return fmt.Sprintf(`Crie uma receita de confeitaria com as seguintes especificações:

Descrição: %s
Porções: %d
Restrições alimentares: %s

Produtos disponíveis:
%s
IMPORTANTE: Retorne APENAS um JSON válido, sem texto adicional, sem markdown, sem explicações. Use apenas produtos da lista disponível. As quantidades devem ser realistas para %d porção(ões).

Estrutura JSON obrigatória (retorne exatamente assim):
{
	"name": "Nome da Receita",
	"ingredients": [
		{"productName": "Nome do Produto", "amount": quantidade_numerica, "unit": "unidade"}
	],
	"instructions": "Instruções passo a passo detalhadas",
	"estimatedCost": custo_numerico
}`, req.Description, serving, restrictions, products.String(), serving)
}

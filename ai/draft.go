package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/greenplanet/inventory-server/inventory"
	"github.com/greenplanet/inventory-server/model"
)

// DraftRequest carries the claim details the cover email is built from.
type DraftRequest struct {
	OwnerName           string `json:"owner_name"`
	OwnerAddress        string `json:"owner_address"`
	PolicyNumber        string `json:"policy_number"`
	ClaimNumber         string `json:"claim_number"`
	IncidentDescription string `json:"incident_description"`
	CustomMessage       string `json:"custom_message"`
}

// Drafter generates free-text email covers and assistant answers.
type Drafter interface {
	DraftClaimEmail(ctx context.Context, req DraftRequest, items []model.Item) (string, error)
	Answer(ctx context.Context, question string, items []model.Item) (string, error)
}

// DraftClaimEmail asks the model for a professional insurance claim
// cover message. The inventory itself is summarized in the prompt but
// never included in the generated text; the deterministic table is
// appended later by the report assembler.
func (c *Client) DraftClaimEmail(ctx context.Context, req DraftRequest, items []model.Item) (string, error) {
	// Category counts in first-appearance order so the summary is stable.
	seen := make(map[model.Category]int)
	var order []model.Category
	for _, it := range items {
		if _, ok := seen[it.Category]; !ok {
			order = append(order, it.Category)
		}
		seen[it.Category]++
	}
	var counts []string
	for _, cat := range order {
		counts = append(counts, fmt.Sprintf("%s: %d", cat, seen[cat]))
	}

	prompt := fmt.Sprintf(`Generate a professional insurance claim email with the following details:

Owner: %s
Address: %s
Policy Number: %s
Claim Number: %s
Incident Description: %s
Custom Message: %s

Inventory Summary:
- Total Items: %d
- Total Estimated Value: $%s
- Items by Category: %s

The email should be professional, concise, and include:
1. A proper greeting
2. Reference to the claim/policy numbers
3. Brief description of the incident
4. A statement mentioning that a detailed inventory is attached below.
5. Request for claim processing
6. Professional closing

Keep it business-appropriate and around 150-250 words. Do not include the inventory list in your response, just the email text.`,
		req.OwnerName, req.OwnerAddress, req.PolicyNumber, req.ClaimNumber,
		req.IncidentDescription, req.CustomMessage,
		len(items), inventory.FormatUSD(inventory.TotalValue(items)),
		strings.Join(counts, ", "))

	return c.Complete(ctx, prompt, nil, nil)
}

// Answer responds to a free-form question grounded on the caller's
// current inventory.
func (c *Client) Answer(ctx context.Context, question string, items []model.Item) (string, error) {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("ai: marshal inventory: %w", err)
	}

	prompt := fmt.Sprintf(`You are a helpful AI assistant for an inventory management app. A user has a question about their inventory. Here is their inventory data in JSON format: %s. Here is the user's question: %q. Please answer the user's question based on the provided inventory data. Be friendly, helpful, and concise. If the question is not related to their inventory, you can try to answer it generally or politely state that your main purpose is inventory assistance.`,
		itemsJSON, question)

	return c.Complete(ctx, prompt, nil, nil)
}

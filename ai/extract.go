package ai

import (
	"context"
	"encoding/json"
	"fmt"
)

// extractionPrompt is the fixed instruction for the vision analysis.
const extractionPrompt = `Analyze these images of personal belongings and identify all items visible. For each item, provide detailed information including:
- Name and description
- Estimated category (electronics, furniture, clothing, jewelry, appliances, books, artwork, tools, sports, other)
- Estimated current market value in USD
- Condition assessment (excellent, good, fair, poor)
- Brand/manufacturer if visible
- Model if identifiable
- Any serial numbers visible

Be thorough and identify even small items. Focus on items that would be important for insurance purposes.`

// itemSchema constrains the completion to {items: [...]}.
var itemSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "description": {"type": "string"},
          "category": {
            "type": "string",
            "enum": ["electronics", "furniture", "clothing", "jewelry", "appliances", "books", "artwork", "tools", "sports", "other"]
          },
          "estimated_value": {"type": "number"},
          "condition": {
            "type": "string",
            "enum": ["excellent", "good", "fair", "poor"]
          },
          "brand": {"type": "string"},
          "model": {"type": "string"},
          "serial_number": {"type": "string"}
        }
      }
    }
  }
}`)

// ItemDescriptor is one item as described by the vision model.
type ItemDescriptor struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	EstimatedValue float64 `json:"estimated_value"`
	Condition      string  `json:"condition"`
	Brand          string  `json:"brand"`
	Model          string  `json:"model"`
	SerialNumber   string  `json:"serial_number"`
}

type extractionResult struct {
	Items []ItemDescriptor `json:"items"`
}

// Extractor turns uploaded image URLs into item descriptors.
type Extractor interface {
	ExtractItems(ctx context.Context, imageURLs []string) ([]ItemDescriptor, error)
}

// ExtractItems sends all image URLs in one request and decodes the
// structured item list. A zero-length result is not an error; the
// caller decides what "no new items" means.
func (c *Client) ExtractItems(ctx context.Context, imageURLs []string) ([]ItemDescriptor, error) {
	content, err := c.Complete(ctx, extractionPrompt, imageURLs, itemSchema)
	if err != nil {
		return nil, err
	}

	var result extractionResult
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &result); err != nil {
		return nil, fmt.Errorf("ai: decode extraction result: %w", err)
	}
	return result.Items, nil
}

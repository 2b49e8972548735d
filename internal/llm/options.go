// Imprevisto response-option generation — three structured choices per event,
// produced by Haiku when available, otherwise from a fixed fallback set.
package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/talgya/mystara/internal/campaign"
)

// rawOption is the loose shape the model is asked to return. Fields are
// validated and normalized before they become campaign.ResponseOption values.
type rawOption struct {
	OptionText  string  `json:"option_text"`
	ExtraMonths int     `json:"extra_months"`
	ExtraCost   float64 `json:"extra_cost"`
	IsFailure   bool    `json:"is_failure"`
}

// GenerateOptions produces the response options for an imprevisto described
// by description. Any failure — no client, API error, malformed output —
// yields the fixed fallback set so an event is never created without choices.
func GenerateOptions(client *Client, description string) []campaign.ResponseOption {
	if !client.Enabled() {
		return FallbackOptions()
	}

	system := `You are the game master's assistant for a Mystara tabletop campaign.
An unforeseen event (imprevisto) has struck a long-running objective. Produce exactly
3 response options the players can choose from.

Respond ONLY with a JSON array of 3 objects, each with:
- "option_text": a short in-world description of the response
- "extra_months": integer months of delay this response adds (0 or more)
- "extra_cost": additional gold cost this response adds (0 or more)
- "is_failure": true only if choosing this abandons the objective entirely

Exactly one option may have "is_failure": true. Keep delays between 0 and 6
months and costs between 0 and 5000 gold.`

	user := fmt.Sprintf("The imprevisto: %s\n\nRespond with the JSON array of 3 options.", description)

	text, err := client.Complete(system, user, 600)
	if err != nil {
		slog.Warn("option generation failed, using fallback", "error", err)
		return FallbackOptions()
	}

	options, err := parseOptions(text)
	if err != nil {
		slog.Warn("option parsing failed, using fallback", "error", err)
		return FallbackOptions()
	}
	return options
}

// parseOptions extracts and validates the JSON array from the model output.
func parseOptions(text string) ([]campaign.ResponseOption, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var raw []rawOption
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}

	options := make([]campaign.ResponseOption, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.OptionText) == "" {
			continue
		}
		if r.ExtraMonths < 0 {
			r.ExtraMonths = 0
		}
		if r.ExtraCost < 0 {
			r.ExtraCost = 0
		}
		options = append(options, campaign.ResponseOption{
			OptionText:  strings.TrimSpace(r.OptionText),
			ExtraMonths: r.ExtraMonths,
			ExtraCost:   decimal.NewFromFloat(r.ExtraCost).Round(2),
			IsFailure:   r.IsFailure,
		})
	}

	if len(options) == 0 {
		return nil, fmt.Errorf("no usable options in response")
	}
	return options, nil
}

// FallbackOptions is the fixed generic set used when generation is
// unavailable or returns garbage.
func FallbackOptions() []campaign.ResponseOption {
	return []campaign.ResponseOption{
		{
			OptionText:  "Push through: hire extra help to absorb the setback",
			ExtraMonths: 0,
			ExtraCost:   decimal.NewFromInt(500),
		},
		{
			OptionText:  "Slow down and work around the problem",
			ExtraMonths: 2,
			ExtraCost:   decimal.Zero,
		},
		{
			OptionText:  "Abandon the objective",
			IsFailure:   true,
			ExtraCost:   decimal.Zero,
		},
	}
}

package usage

// modelPrice holds USD prices per million tokens.
type modelPrice struct {
	input  float64
	output float64
}

// Pricing maps model names to per-million-token USD prices. Unknown models
// (local ollama models, custom gateway routes) price at zero.
type Pricing struct {
	prices map[string]modelPrice
}

// DefaultPricing covers the models the default registry ships with plus the
// common models each provider's discovery can surface.
func DefaultPricing() *Pricing {
	return &Pricing{prices: map[string]modelPrice{
		"gemini-2.5-flash-lite":      {input: 0.10, output: 0.40},
		"gemini-2.5-flash":           {input: 0.30, output: 2.50},
		"gemini-2.5-pro":             {input: 1.25, output: 10.00},
		"claude-3-5-haiku-20241022":  {input: 0.80, output: 4.00},
		"claude-3-5-sonnet-20241022": {input: 3.00, output: 15.00},
		"gpt-4o":                     {input: 2.50, output: 10.00},
		"gpt-4o-mini":                {input: 0.15, output: 0.60},
		"mistral-small-latest":       {input: 0.10, output: 0.30},
		"mistral-large-latest":       {input: 2.00, output: 6.00},
	}}
}

// InputPrice returns the USD price per million input tokens, 0 for unknown
// models.
func (p *Pricing) InputPrice(model string) float64 {
	return p.prices[model].input
}

// OutputPrice returns the USD price per million output tokens, 0 for unknown
// models.
func (p *Pricing) OutputPrice(model string) float64 {
	return p.prices[model].output
}

// Cost computes the USD cost of one completion.
func (p *Pricing) Cost(model string, promptTokens, completionTokens int) float64 {
	price := p.prices[model]
	return float64(promptTokens)/1e6*price.input + float64(completionTokens)/1e6*price.output
}

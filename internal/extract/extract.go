// Package extract turns redacted statement text into a typed draft statement
// via a single Gemini call. The adapter does not retry; retry policy belongs
// to the caller.
package extract

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/bankbuddy/internal/domain"
)

// DefaultModelName is the default Gemini model used for extraction.
const DefaultModelName = "gemini-2.5-flash"

// Draft is the structured output of one extraction call, prior to
// normalization. Transactions are kept as raw JSON objects: a single bad
// record must not reject the whole statement, so per-record validation is
// deferred to the normalizer.
type Draft struct {
	StatementDate  *string
	AccountBalance *float64
	Transactions   []interface{}
}

// StatementExtractor is the boundary to the external text-understanding
// service. A failed call surfaces as domain.ErrExtraction; a successful call
// with an unexpected payload shape surfaces as domain.ErrMalformedResponse.
type StatementExtractor interface {
	Extract(ctx context.Context, redactedText string) (*Draft, error)
}

// GeminiExtractor is the concrete StatementExtractor backed by Gemini.
type GeminiExtractor struct {
	model string
}

// NewGeminiExtractor creates an extractor for the given model name.
// An empty model name falls back to DefaultModelName.
func NewGeminiExtractor(model string) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExtractor{model: model}
}

// Extract sends the redacted statement text to Gemini and decodes the strict
// JSON response into a Draft.
func (e *GeminiExtractor) Extract(ctx context.Context, redactedText string) (*Draft, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("Extract: create genai client: %v: %w", err, domain.ErrExtraction)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(redactedText)},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Extract: generate content: %v: %w", err, domain.ErrExtraction)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Extract: empty response from model: %w", domain.ErrExtraction)
	}

	return DecodeDraft(rawText)
}

// buildPrompt assembles the extraction instructions. The requested sign
// convention is authoritative for the whole system: negative = debit/charge,
// positive = credit/payment.
func buildPrompt(statementText string) string {
	var b strings.Builder

	b.WriteString("RESPOND WITH VALID JSON ONLY - NO OTHER TEXT\n\n")
	b.WriteString("Extract transactions from this bank or credit card statement as JSON:\n\n")
	b.WriteString("{\n")
	b.WriteString("    \"statement_date\": \"YYYY-MM-DD or null\",\n")
	b.WriteString("    \"account_balance\": \"numeric value or null\",\n")
	b.WriteString("    \"transactions\": [\n")
	b.WriteString("        {\n")
	b.WriteString("            \"transaction_date\": \"YYYY-MM-DD\",\n")
	b.WriteString("            \"description\": \"string\",\n")
	b.WriteString("            \"amount\": -123.45,\n")
	b.WriteString("            \"category\": \"string from allowed list\"\n")
	b.WriteString("        }\n")
	b.WriteString("    ]\n")
	b.WriteString("}\n\n")
	b.WriteString("IMPORTANT:\n")
	b.WriteString("- amount must be a NUMBER (not string)\n")
	b.WriteString("- Use negative numbers for debits/charges\n")
	b.WriteString("- Use positive numbers for credits/payments\n")
	b.WriteString("- Do not include currency symbols or commas\n")
	b.WriteString("- Always format dates as YYYY-MM-DD, even if they appear differently in the statement\n")
	b.WriteString("- If the year is missing, infer it from the rest of the text\n")
	b.WriteString("- Do NOT wrap the response in code fences or Markdown\n\n")
	b.WriteString("Allowed categories: ")
	b.WriteString(strings.Join(domain.Categories, ", "))
	b.WriteString("\n\nStatement text:\n")
	b.WriteString(statementText)

	return b.String()
}

package ai

import (
	"encoding/json"
	"strings"

	"github.com/BabakBar/AutoSpendTracker/internal/domain"
	"github.com/BabakBar/AutoSpendTracker/internal/mail"
)

// exampleTransaction is the worked example embedded in every prompt.
const exampleTransaction = `{
  "amount": "24.95",
  "currency": "USD",
  "merchant": "Coffee Shop Downtown",
  "category": "Food & Dining",
  "date": "15-04-2025",
  "time": "2:30 PM",
  "account": "Wise"
}`

// BuildPrompt renders the intermediate record into the model instruction.
// Pure function: the same record always yields the same prompt. It encodes
// the strict output format, the per-field constraints, the closed category
// list with categorization heuristics, a worked example, and the record.
func BuildPrompt(rec *mail.IntermediateRecord) string {
	quoted := make([]string, len(domain.AllowedCategories))
	for i, c := range domain.AllowedCategories {
		quoted[i] = `"` + c + `"`
	}
	categories := strings.Join(quoted, ", ")

	serialized, _ := json.Marshal(rec)

	var b strings.Builder
	b.WriteString("Format this transaction as a single JSON object. Important rules:\n\n")
	b.WriteString("1. Output MUST be a raw JSON object only - no markdown, no code blocks, no backticks, no extra text\n")
	b.WriteString("2. Field requirements:\n")
	b.WriteString("   - amount: string with exactly 2 decimal places (e.g., \"10.95\", \"466.40\")\n")
	b.WriteString("   - currency: uppercase string (e.g., \"USD\", \"EUR\", \"MXN\")\n")
	b.WriteString("   - merchant: full business name including location if provided\n")
	b.WriteString("   - category: must be exactly one of these categories: " + categories + "\n")
	b.WriteString("   - date: string in DD-MM-YYYY format\n")
	b.WriteString("   - time: string in HH:MM AM/PM format\n")
	b.WriteString("   - account: string (e.g., \"Wise\", \"PayPal\")\n\n")
	b.WriteString("3. Allowed categories and their rules:\n")
	b.WriteString("   - Transport: rides, fuel, parking, vehicle services\n")
	b.WriteString("   - Food & Dining: restaurants, cafes, bars, food delivery\n")
	b.WriteString("   - Travel: hotels, flights, tourism activities\n")
	b.WriteString("   - Home: furniture, maintenance, home services\n")
	b.WriteString("   - Utilities: internet, phone, web services, hosting, domains, subscriptions\n")
	b.WriteString("   - People: transfers, gifts, personal services\n")
	b.WriteString("   - Shopping: retail stores, online shopping, general merchandise\n")
	b.WriteString("   - Grocery: supermarkets, food stores, markets\n")
	b.WriteString("   - Other: anything that doesn't fit above categories\n\n")
	b.WriteString("4. Specific merchant categorization:\n")
	b.WriteString("   - Web services (like OpenRouter, Namecheap) -> Utilities\n")
	b.WriteString("   - Restaurants (like Old Peter, Balam) -> Food & Dining\n")
	b.WriteString("   - Retail stores (like Deckers) -> Shopping\n")
	b.WriteString("   - Supermarkets (like City Market) -> Grocery\n\n")
	b.WriteString("5. Example of correctly formatted transaction:\n")
	b.WriteString(exampleTransaction)
	b.WriteString("\n\nTransaction to format: ")
	b.Write(serialized)

	return b.String()
}

package mail

import "fmt"

// providerFilter matches transaction notifications from the two supported
// providers: Wise spend/receive mails and German-language PayPal payment
// confirmations.
const providerFilter = `(from:noreply@wise.com ("You spent" OR "is now in")) OR (from:service@paypal.de "Von Ihnen gezahlt")`

// BuildQuery composes the candidate-selection query: the provider filter,
// minus anything already carrying the processed label, bounded to the
// lookback window. Messages picked up by this query are exactly the
// unprocessed candidates for one pipeline run.
func BuildQuery(labelName string, daysBack int) string {
	return fmt.Sprintf(`(%s) -label:%q newer_than:%dd`, providerFilter, labelName, daysBack)
}

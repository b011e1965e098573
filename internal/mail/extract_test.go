package mail

import (
	"strings"
	"testing"

	"github.com/BabakBar/AutoSpendTracker/internal/domain"
)

func TestBuildQuery(t *testing.T) {
	got := BuildQuery("AutoSpendTracker/Processed", 7)

	for _, want := range []string{
		`from:noreply@wise.com`,
		`"You spent"`,
		`"is now in"`,
		`from:service@paypal.de`,
		`"Von Ihnen gezahlt"`,
		`-label:"AutoSpendTracker/Processed"`,
		`newer_than:7d`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("BuildQuery() = %q, want to contain %q", got, want)
		}
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		msg         *RawMessage
		wantInfo    string
		wantAccount domain.Account
		wantDate    string
		wantSkip    bool
	}{
		{
			name: "wise spend notification",
			msg: &RawMessage{
				ID:   "m1",
				From: "Wise <noreply@wise.com>",
				Date: "Mon, 01 May 2023 12:34:00 +0000",
				HTML: "<html><body><p>You spent 45.67 EUR at Coffee Shop. Enjoy!</p></body></html>",
			},
			wantInfo:    "You spent 45.67 EUR at Coffee Shop.",
			wantAccount: domain.AccountWise,
			wantDate:    "01-05-2023 12:34 PM",
		},
		{
			name: "paypal german payment restated in the standard phrasing",
			msg: &RawMessage{
				ID:   "m2",
				From: "PayPal <service@paypal.de>",
				Date: "Tue, 02 May 2023 08:05:00 +0200",
				HTML: "<html><body>Sie haben 12,50 EUR an Old Peter gesendet. Danke.</body></html>",
			},
			wantInfo:    "You spent 12,50 EUR at Old Peter.",
			wantAccount: domain.AccountPayPal,
			wantDate:    "02-05-2023 8:05 AM",
		},
		{
			name: "paypal with english connective",
			msg: &RawMessage{
				ID:   "m3",
				From: "service@paypal.de",
				Date: "Tue, 02 May 2023 18:05:00 +0000",
				HTML: "Sie haben 9.99 USD to Namecheap gesendet.",
			},
			wantInfo:    "You spent 9.99 USD at Namecheap.",
			wantAccount: domain.AccountPayPal,
			wantDate:    "02-05-2023 6:05 PM",
		},
		{
			name: "balance notification with no spend pattern is skipped",
			msg: &RawMessage{
				ID:   "m4",
				From: "noreply@wise.com",
				Date: "Mon, 01 May 2023 12:34:00 +0000",
				HTML: "<html><body>Your balance is now in good shape.</body></html>",
			},
			wantSkip: true,
		},
		{
			name: "empty body is skipped",
			msg: &RawMessage{
				ID:   "m5",
				From: "noreply@wise.com",
				Date: "Mon, 01 May 2023 12:34:00 +0000",
			},
			wantSkip: true,
		},
		{
			name: "pattern hidden inside title is not matched",
			msg: &RawMessage{
				ID:   "m6",
				From: "noreply@wise.com",
				Date: "Mon, 01 May 2023 12:34:00 +0000",
				HTML: "<html><head><title>You spent 45.67 EUR at Coffee Shop.</title></head><body>Receipt attached.</body></html>",
			},
			wantSkip: true,
		},
		{
			name: "unparsable date header leaves the date empty",
			msg: &RawMessage{
				ID:   "m7",
				From: "noreply@wise.com",
				Date: "not a date",
				HTML: "You spent 3.00 GBP at Deckers.",
			},
			wantInfo:    "You spent 3.00 GBP at Deckers.",
			wantAccount: domain.AccountWise,
			wantDate:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Extract(tt.msg)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if tt.wantSkip {
				if rec != nil {
					t.Fatalf("Extract() = %+v, want nil (skip)", rec)
				}
				return
			}
			if rec == nil {
				t.Fatal("Extract() = nil, want record")
			}
			if rec.Info != tt.wantInfo {
				t.Errorf("Extract() info = %q, want %q", rec.Info, tt.wantInfo)
			}
			if rec.Account != tt.wantAccount {
				t.Errorf("Extract() account = %q, want %q", rec.Account, tt.wantAccount)
			}
			if rec.Date != tt.wantDate {
				t.Errorf("Extract() date = %q, want %q", rec.Date, tt.wantDate)
			}
		})
	}
}

func TestExtract_NilMessage(t *testing.T) {
	if _, err := Extract(nil); err == nil {
		t.Error("Extract(nil) error = nil, want error")
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "joins text nodes with spaces",
			body: "<div><p>You spent</p><p>45.67 EUR</p></div>",
			want: "You spent 45.67 EUR",
		},
		{
			name: "drops style and script",
			body: "<style>p{color:red}</style><script>alert(1)</script><p>visible</p>",
			want: "visible",
		},
		{
			name: "collapses internal whitespace",
			body: "<p>You   spent\n\t45.67</p>",
			want: "You spent 45.67",
		},
		{
			name: "empty body",
			body: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlToText(tt.body); got != tt.want {
				t.Errorf("htmlToText(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

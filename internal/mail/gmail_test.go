package mail

import (
	"encoding/base64"
	"testing"

	"google.golang.org/api/gmail/v1"
)

func encodePart(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestFirstHTMLPart(t *testing.T) {
	tests := []struct {
		name    string
		payload *gmail.MessagePart
		want    string
	}{
		{
			name: "html at top level",
			payload: &gmail.MessagePart{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: encodePart("<p>hi</p>")},
			},
			want: "<p>hi</p>",
		},
		{
			name: "html nested under multipart alternative",
			payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "text/plain",
						Body:     &gmail.MessagePartBody{Data: encodePart("plain")},
					},
					{
						MimeType: "text/html",
						Body:     &gmail.MessagePartBody{Data: encodePart("<b>rich</b>")},
					},
				},
			},
			want: "<b>rich</b>",
		},
		{
			name: "html two levels deep",
			payload: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "multipart/alternative",
						Parts: []*gmail.MessagePart{
							{
								MimeType: "text/html",
								Body:     &gmail.MessagePartBody{Data: encodePart("<i>deep</i>")},
							},
						},
					},
				},
			},
			want: "<i>deep</i>",
		},
		{
			name: "no html part",
			payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: encodePart("plain only")},
			},
			want: "",
		},
		{
			name: "html part with empty body is skipped",
			payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/html", Body: &gmail.MessagePartBody{}},
				},
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := firstHTMLPart(tt.payload)
			if err != nil {
				t.Fatalf("firstHTMLPart() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("firstHTMLPart() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeBody(t *testing.T) {
	const text = "You spent 45.67 EUR"

	padded := base64.URLEncoding.EncodeToString([]byte(text))
	unpadded := base64.RawURLEncoding.EncodeToString([]byte(text))

	for _, data := range []string{padded, unpadded} {
		got, err := decodeBody(data)
		if err != nil {
			t.Fatalf("decodeBody(%q) error = %v", data, err)
		}
		if string(got) != text {
			t.Errorf("decodeBody(%q) = %q, want %q", data, got, text)
		}
	}

	if _, err := decodeBody("!!not base64!!"); err == nil {
		t.Error("decodeBody() on garbage = nil error, want error")
	}
}

func TestHeaderValue(t *testing.T) {
	headers := []*gmail.MessagePartHeader{
		{Name: "From", Value: "noreply@wise.com"},
		{Name: "Date", Value: "Mon, 01 May 2023 12:34:00 +0000"},
	}

	if got := headerValue(headers, "From"); got != "noreply@wise.com" {
		t.Errorf("headerValue(From) = %q", got)
	}
	if got := headerValue(headers, "Subject"); got != "" {
		t.Errorf("headerValue(Subject) = %q, want empty", got)
	}
}

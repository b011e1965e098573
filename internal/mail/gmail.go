package mail

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailService implements Service on top of the Gmail API.
type GmailService struct {
	svc    *gmail.Service
	userID string
}

var _ Service = (*GmailService)(nil)

// NewGmailService builds a Gmail client for the authenticated user. The
// caller supplies credentials via opts (service account file, ADC, or a
// pre-built HTTP client in tests).
func NewGmailService(ctx context.Context, opts ...option.ClientOption) (*GmailService, error) {
	opts = append(opts, option.WithScopes(gmail.GmailModifyScope))
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGmailService: create gmail service: %w", err)
	}
	return &GmailService{svc: svc, userID: "me"}, nil
}

// Search returns the ids of messages matching the query in source order.
func (g *GmailService) Search(ctx context.Context, query string) ([]string, error) {
	resp, err := g.svc.Users.Messages.List(g.userID).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, &FetchError{Op: "search messages", Err: err}
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage fetches the full message and flattens it into a RawMessage:
// the From and Date headers plus the first text/html part found by a
// depth-first walk of the part tree.
func (g *GmailService) GetMessage(ctx context.Context, id string) (*RawMessage, error) {
	msg, err := g.svc.Users.Messages.Get(g.userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, &FetchError{Op: fmt.Sprintf("get message %s", id), Err: err}
	}
	if msg.Payload == nil {
		return nil, &FetchError{Op: fmt.Sprintf("get message %s", id), Err: fmt.Errorf("message has no payload")}
	}

	raw := &RawMessage{
		ID:   id,
		From: headerValue(msg.Payload.Headers, "From"),
		Date: headerValue(msg.Payload.Headers, "Date"),
	}

	html, err := firstHTMLPart(msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("GetMessage: decoding body of %s: %w", id, err)
	}
	raw.HTML = html

	return raw, nil
}

// EnsureLabel returns the id of the named label, creating it when missing.
func (g *GmailService) EnsureLabel(ctx context.Context, name string) (string, error) {
	resp, err := g.svc.Users.Labels.List(g.userID).Context(ctx).Do()
	if err != nil {
		return "", &FetchError{Op: "list labels", Err: err}
	}
	for _, l := range resp.Labels {
		if l.Name == name {
			return l.Id, nil
		}
	}

	created, err := g.svc.Users.Labels.Create(g.userID, &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", &FetchError{Op: fmt.Sprintf("create label %q", name), Err: err}
	}
	return created.Id, nil
}

// ApplyLabel attaches the label to a message.
func (g *GmailService) ApplyLabel(ctx context.Context, msgID, labelID string) error {
	_, err := g.svc.Users.Messages.Modify(g.userID, msgID, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ApplyLabel: modify message %s: %w", msgID, err)
	}
	return nil
}

// firstHTMLPart walks the part tree depth-first and returns the decoded body
// of the first text/html part, or "" when the message has none.
func firstHTMLPart(payload *gmail.MessagePart) (string, error) {
	stack := []*gmail.MessagePart{payload}
	for len(stack) > 0 {
		part := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		stack = append(stack, part.Parts...)

		if part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "" {
			data, err := decodeBody(part.Body.Data)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
	}
	return "", nil
}

// decodeBody decodes Gmail's URL-safe base64 body data, with or without
// padding.
func decodeBody(data string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode body data: %w", err)
	}
	return b, nil
}

func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

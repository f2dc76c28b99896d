package service

import "context"

// Notifier delivers a push message to the owner. body is HTML.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// NopNotifier drops every message.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string) error { return nil }

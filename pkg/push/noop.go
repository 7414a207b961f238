package push

import "context"

// NopDispatcher drops every message. Used when PUSH_ENABLED is false
// (development, tests): suppression bookkeeping still runs, delivery doesn't.
type NopDispatcher struct{}

func (NopDispatcher) Send(ctx context.Context, recipientIDs []string, title, body string, data map[string]string) error {
	return nil
}

package testutil

import (
	"context"
	"sync"

	"github.com/Alijeyrad/carevisit_backend/pkg/email"
)

// FakeMailer records messages instead of sending them. Err is returned from
// every Send when set.
type FakeMailer struct {
	mu   sync.Mutex
	Err  error
	Sent []email.Message
}

var _ email.Sender = (*FakeMailer)(nil)

func (f *FakeMailer) Send(_ context.Context, m email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, m)
	return nil
}

func (f *FakeMailer) Messages() []email.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]email.Message(nil), f.Sent...)
}

package session

import (
	"fmt"
	"io"
	"sync"
)

// Notifier shows messages to the operator. It stands in for the blocking
// alert of a browser: every failure of a session operation ends up here.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f.
func (f NotifierFunc) Notify(message string) { f(message) }

// NopNotifier discards messages.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(string) {}

// WriterNotifier prints each message on its own line.
type WriterNotifier struct {
	W io.Writer
}

// Notify writes the message.
func (n WriterNotifier) Notify(message string) {
	fmt.Fprintln(n.W, message)
}

// Inbox queues messages until the next page render drains them.
type Inbox struct {
	mu       sync.Mutex
	messages []string
}

// Notify queues a message.
func (i *Inbox) Notify(message string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = append(i.messages, message)
}

// Drain returns the queued messages and empties the inbox.
func (i *Inbox) Drain() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.messages
	i.messages = nil
	return out
}

// Len returns the number of queued messages.
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.messages)
}

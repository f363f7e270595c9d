package core

import "sync"

// System event codes.
type EventCode uint16

const (
	// Ask the frame loop to stop after the current frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = iota + 1

	// Keyboard key pressed.
	/* Context usage:
	 * key := ctx.Key
	 */
	EVENT_CODE_KEY_PRESSED

	// Keyboard key released.
	/* Context usage:
	 * key := ctx.Key
	 */
	EVENT_CODE_KEY_RELEASED
)

// Key codes the presenter translates. Values follow the virtual key table.
type KeyCode uint16

const (
	KEY_ENTER  KeyCode = 0x0D
	KEY_ESCAPE KeyCode = 0x1B
	KEY_SPACE  KeyCode = 0x20
	KEY_P      KeyCode = 0x50
	KEY_Q      KeyCode = 0x51
)

type EventContext struct {
	Key KeyCode
}

// Should return true if handled.
type FnOnEvent func(code EventCode, ctx EventContext) bool

// EventBus delivers events fired by the presenter to the frame loop. Both
// run on the main thread, so handlers are called synchronously.
type EventBus struct {
	mu         sync.RWMutex
	registered map[EventCode][]FnOnEvent
}

func NewEventBus() *EventBus {
	return &EventBus{registered: make(map[EventCode][]FnOnEvent)}
}

/**
 * Register to listen for when events are sent with the provided code.
 * @param code The event code to listen for.
 * @param onEvent The callback invoked when the event code is fired.
 */
func (b *EventBus) Register(code EventCode, onEvent FnOnEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registered[code] = append(b.registered[code], onEvent)
}

/**
 * Fires an event to listeners of the given code. If a handler returns
 * true, the event is considered handled and is not passed on to any more
 * listeners.
 * @returns true if handled, otherwise false.
 */
func (b *EventBus) Fire(code EventCode, ctx EventContext) bool {
	b.mu.RLock()
	handlers := b.registered[code]
	b.mu.RUnlock()

	for _, h := range handlers {
		if h(code, ctx) {
			return true
		}
	}
	return false
}

// Clear drops every listener.
func (b *EventBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.registered)
}

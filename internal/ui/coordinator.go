package ui

import (
	"net/http"

	"github.com/marcus/academy/internal/fragment"
)

// Swap targets used by the console's fragment requests.
const (
	// TargetDialog is the modal dialog's content slot.
	TargetDialog = "dialog"
	// TargetUserList is the user list region.
	TargetUserList = "user-list"
)

// ModalState is the coordinator's view of the shared modal dialog.
type ModalState int

const (
	ModalClosed ModalState = iota
	ModalOpen
)

// Decision tells the owning model what to do with the dialog after a
// completion was observed. Show is reported before the new content is
// swapped into the slot.
type Decision struct {
	Show bool
	Hide bool
}

// Coordinator synchronizes the shared modal dialog and per-trigger loading
// indicators with fragment request lifecycles. It owns no widgets itself:
// the console model threads one instance through and acts on its decisions.
//
// Rules, driven by response status:
//   - 200 targeted at the dialog slot opens the modal (before the swap);
//     when the modal is already open the content is simply replaced.
//   - 204 while the modal is open closes it. The slot is reset to the
//     placeholder when the hide completes, exactly once.
//   - every other status is left to the originating request's own error
//     surface and does not touch modal state.
type Coordinator struct {
	state       ModalState
	content     string
	placeholder string
	needsReset  bool
	loading     map[string]struct{}
}

// NewCoordinator creates a coordinator whose dialog slot shows the given
// placeholder while no fragment content is loaded.
func NewCoordinator(placeholder string) *Coordinator {
	return &Coordinator{
		content:     placeholder,
		placeholder: placeholder,
		loading:     make(map[string]struct{}),
	}
}

// State returns the current modal state.
func (c *Coordinator) State() ModalState { return c.state }

// Content returns what the dialog slot currently holds.
func (c *Coordinator) Content() string { return c.content }

// Observe inspects a completed fragment request and decides the modal
// transition. Indicator bookkeeping is separate (Start/Finish).
func (c *Coordinator) Observe(msg fragment.CompletedMsg) Decision {
	switch {
	case msg.Err != nil:
		// Transport failures are surfaced by the status line, not here.
		return Decision{}

	case msg.Status == http.StatusOK && msg.Target == TargetDialog:
		if c.state == ModalClosed {
			c.state = ModalOpen
			return Decision{Show: true}
		}
		// Already open: validation re-renders replace the content in place.
		return Decision{}

	case msg.Status == http.StatusNoContent && c.state == ModalOpen:
		c.state = ModalClosed
		c.needsReset = true
		return Decision{Hide: true}
	}
	return Decision{}
}

// Swap replaces the dialog slot content. Callers act on Observe's Show
// decision first so the modal is open before the new content lands.
func (c *Coordinator) Swap(content string) {
	c.content = content
}

// Dismiss closes the modal without a server round trip (user pressed esc).
// The slot is still reset on hide completion.
func (c *Coordinator) Dismiss() {
	if c.state == ModalOpen {
		c.state = ModalClosed
		c.needsReset = true
	}
}

// Hidden is called once the dialog overlay is gone. It resets the slot to
// the placeholder exactly once per close; repeated hide events are no-ops.
func (c *Coordinator) Hidden() {
	if c.needsReset {
		c.content = c.placeholder
		c.needsReset = false
	}
}

// Start marks the trigger element as having a request in flight.
func (c *Coordinator) Start(triggerID string) {
	if triggerID == "" {
		return
	}
	c.loading[triggerID] = struct{}{}
}

// Finish clears the trigger's indicator regardless of request outcome.
// Unknown triggers are no-ops.
func (c *Coordinator) Finish(triggerID string) {
	delete(c.loading, triggerID)
}

// Loading reports whether the trigger element has a request in flight.
func (c *Coordinator) Loading(triggerID string) bool {
	_, ok := c.loading[triggerID]
	return ok
}

// AnyLoading reports whether any request is in flight.
func (c *Coordinator) AnyLoading() bool {
	return len(c.loading) > 0
}

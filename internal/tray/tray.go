// Package tray provides the system tray menu for the Lumiere scene host.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"github.com/lumiere-studio/lumiere/internal/session"
)

// Tray represents the system tray application.
type Tray struct {
	onGesture func(enabled bool)
	onRecord  func(kind session.RecordingKind)
	onViewer  func()
	onQuit    func()
	gesture   bool
	status    string
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuGesture *systray.MenuItem
	menuStatus  *systray.MenuItem
}

// New creates a new Tray with gesture control off.
func New() *Tray {
	return &Tray{status: "Idle"}
}

// OnGestureControl sets the callback for the gesture control checkbox.
func (t *Tray) OnGestureControl(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onGesture = fn
}

// OnRecord sets the callback for the record menu items.
func (t *Tray) OnRecord(fn func(kind session.RecordingKind)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRecord = fn
}

// OnOpenViewer sets the callback for the open viewer menu item.
func (t *Tray) OnOpenViewer(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onViewer = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Lumiere")
	systray.SetTooltip("Lumiere photo tree")

	t.mu.Lock()
	t.menuGesture = systray.AddMenuItemCheckbox("Gesture control", "Steer the tree with your hand", t.gesture)
	systray.AddSeparator()
	t.menuStatus = systray.AddMenuItem("Status: "+t.status, "Current activity")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuFull := systray.AddMenuItem("Record full tree", "Capture an orbit of the whole tree")
	menuAlbum := systray.AddMenuItem("Record album", "Capture a tour of every photo")
	systray.AddSeparator()

	menuViewer := systray.AddMenuItem("Open viewer...", "Open the viewer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Lumiere")

	go func() {
		for {
			select {
			case <-t.menuGesture.ClickedCh:
				t.handleGesture()
			case <-menuFull.ClickedCh:
				t.handleRecord(session.RecordingFull)
			case <-menuAlbum.ClickedCh:
				t.handleRecord(session.RecordingAlbum)
			case <-menuViewer.ClickedCh:
				t.handleViewer()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleGesture flips the checkbox and reports the new state.
func (t *Tray) handleGesture() {
	t.mu.Lock()
	t.gesture = !t.gesture
	enabled := t.gesture
	t.syncGesture()
	callback := t.onGesture
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleRecord(kind session.RecordingKind) {
	t.mu.RLock()
	callback := t.onRecord
	t.mu.RUnlock()

	if callback != nil {
		callback(kind)
	}
}

func (t *Tray) handleViewer() {
	t.mu.RLock()
	callback := t.onViewer
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// syncGesture updates the checkbox. Callers hold mu.
func (t *Tray) syncGesture() {
	if t.menuGesture == nil {
		return
	}
	if t.gesture {
		t.menuGesture.Check()
	} else {
		t.menuGesture.Uncheck()
	}
}

// Sync mirrors the session into the menu. Gesture control dropped by the
// host (camera lost, backend failed) unchecks the box.
func (t *Tray) Sync(st session.State) {
	status := "Idle"
	if st.Recording {
		status = "Recording " + string(st.RecordingKind)
	} else if st.PendingGesture {
		status = "Starting camera"
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	gesture := st.Control == session.ControlGesture || st.PendingGesture
	if gesture != t.gesture {
		t.gesture = gesture
		t.syncGesture()
	}
	if status != t.status {
		t.status = status
		if t.menuStatus != nil {
			t.menuStatus.SetTitle("Status: " + status)
		}
	}
}

// GestureControl returns the checkbox state.
func (t *Tray) GestureControl() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gesture
}

// Status returns the status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

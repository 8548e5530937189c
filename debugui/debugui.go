// Package debugui renders Dear ImGui inspector windows for a running
// session: every board replica, the dispatcher state and the frame
// scheduler's timings.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/blockfall/client"
)

// Item holds a Dear ImGui render function.
type Item struct {
	Render func()
}

// InputState tracks whether Dear ImGui is consuming mouse or keyboard input.
type InputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// System renders every item once per frame. Register it with the session's
// scheduler between the backend's BeginFrame and EndFrame.
type System struct {
	Items []Item
	Input InputState
}

func (s *System) Add(render func()) {
	s.Items = append(s.Items, Item{Render: render})
}

// Execute updates the input state and runs all render functions.
func (s *System) Execute(frame *client.Frame) {
	s.Input.WantCaptureMouse = imgui.CurrentIO().WantCaptureMouse()
	s.Input.WantCaptureKeyboard = imgui.CurrentIO().WantCaptureKeyboard()

	for _, item := range s.Items {
		item.Render()
	}
}

// Install registers the standard windows for session and returns the system.
func Install(session *client.Session) *System {
	inspector := NewBoardInspector(session)
	stats := NewPerformanceStats(session.Scheduler(), 120)

	sys := &System{}
	sys.Add(inspector.Render)
	sys.Add(stats.Render)
	session.Scheduler().Register(sys)
	return sys
}

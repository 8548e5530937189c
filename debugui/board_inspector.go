package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/blockfall/board"
	"github.com/plus3/blockfall/client"
	"github.com/plus3/blockfall/registry"
)

// BoardInspector lists every board replica with its queue, current shape and
// a text dump of its grid.
type BoardInspector struct {
	session *client.Session
}

func NewBoardInspector(session *client.Session) *BoardInspector {
	return &BoardInspector{session: session}
}

func (bi *BoardInspector) Render() {
	if !imgui.BeginV("Boards", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	s := bi.session
	imgui.Text(fmt.Sprintf("Local: %d", s.Local()))
	imgui.Text(fmt.Sprintf("Started: %t", s.Started()))
	imgui.Text(fmt.Sprintf("Pending packets: %d", s.Pending()))
	imgui.Text(fmt.Sprintf("Lock: %.0f%%", s.LockFraction()*100))
	if w, over := s.Winner(); over {
		imgui.Text(fmt.Sprintf("Winner: %s (%d)", w.Username, w.Conn))
	}
	imgui.Separator()

	s.Registry().View(func(v registry.Reader) {
		imgui.Text(fmt.Sprintf("Boards: %d (coupled: %t)", v.Len(), v.Coupled()))

		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("BoardTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Conn")
			imgui.TableSetupColumn("Username")
			imgui.TableSetupColumn("Lost")
			imgui.TableSetupColumn("Current")
			imgui.TableSetupColumn("Queued")
			imgui.TableHeadersRow()

			for conn, b := range v.All() {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", conn))
				imgui.TableNextColumn()
				imgui.Text(b.Username())
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%t", b.HasLost()))
				imgui.TableNextColumn()
				imgui.Text(DescribeShape(b.Current()))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", len(b.Queue())))
			}
			imgui.EndTable()
		}

		for conn, b := range v.All() {
			if imgui.TreeNodeStr(fmt.Sprintf("%s (%d)", b.Username(), conn)) {
				for _, spec := range b.Queue() {
					imgui.BulletText(fmt.Sprintf("%s #%06X", spec.Kind, uint32(spec.Color)))
				}
				for _, line := range board.FormatGrid(b.Grid(), b.Current()) {
					imgui.Text(line)
				}
				imgui.TreePop()
			}
		}
	})

	imgui.End()
}

// DescribeShape summarises a shape as "<kind> @x,y r<rotation>".
func DescribeShape(s *board.Shape) string {
	if s == nil {
		return "-"
	}
	p := s.Position()
	desc := fmt.Sprintf("%s @%d,%d r%d", s.Kind(), p.X, p.Y, s.Rotation())
	if s.Locked() {
		desc += " locked"
	}
	return desc
}

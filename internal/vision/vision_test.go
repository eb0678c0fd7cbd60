package vision

import "github.com/outpost-sim/server/internal/vec"

func square(min vec.V2, size int32) vec.Region2 {
	return vec.NewRegion2(min, vec.V2{X: min.X + size, Y: min.Y + size})
}

type recordingHooks struct {
	NopHooks
	appeared, disappeared []int32
	motionUpdates         []int32
	planeChanges          int
}

func (h *recordingHooks) EntityAppear(_, eid int32)    { h.appeared = append(h.appeared, eid) }
func (h *recordingHooks) EntityDisappear(_, eid int32) { h.disappeared = append(h.disappeared, eid) }
func (h *recordingHooks) EntityMotionUpdate(_, eid int32) {
	h.motionUpdates = append(h.motionUpdates, eid)
}
func (h *recordingHooks) PlaneChange(int32, int32, int32) { h.planeChanges++ }

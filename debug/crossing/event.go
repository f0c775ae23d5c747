package crossing

// ControlEvent is what the persistent domain tells the resettable domain
// after each accepted control word write.
type ControlEvent struct {
	Active    bool
	HartSel   uint32
	ResumeReq bool
	NDMReset  bool
}

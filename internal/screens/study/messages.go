package study

// opDoneMsg is sent when a pipeline operation on the machine returns.
type opDoneMsg struct {
	Err error
}

// savedMsg reports diagrams written to disk.
type savedMsg struct {
	Paths map[string]string // image key → path
	Err   error
}

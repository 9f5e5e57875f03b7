package results

// CopiedMsg reports the outcome of copying a row to the clipboard.
type CopiedMsg struct {
	Row int
	Err error
}

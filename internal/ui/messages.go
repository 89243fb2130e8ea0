package ui

// tickMsg drives the parameter poll.
type tickMsg struct{}

// InputDoneMsg indicates the input stream has ended (file mode).
type InputDoneMsg struct{}

// InputErrorMsg carries a fatal input error into the UI.
type InputErrorMsg struct {
	Err error
}

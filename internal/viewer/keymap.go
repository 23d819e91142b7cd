package viewer

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeyEsc       = "esc"
	KeySpace     = " "
	KeyNext      = "n"
	KeyRight     = "right"
)

package tui

// inputLog keeps recently submitted commands for Up/Down recall at the
// prompt. Browsing is a position into cmds; pos == len(cmds) means the
// player is typing fresh input. Submitting a command always snaps back
// to fresh input.
type inputLog struct {
	cmds []string
	size int
	pos  int
}

func newInputLog(size int) *inputLog {
	return &inputLog{size: size}
}

// remember records a submitted command and leaves browsing. Repeating
// the previous command adds nothing: recall through a wall of identical
// entries is useless.
func (l *inputLog) remember(cmd string) {
	if n := len(l.cmds); n == 0 || l.cmds[n-1] != cmd {
		if len(l.cmds) == l.size {
			copy(l.cmds, l.cmds[1:])
			l.cmds = l.cmds[:l.size-1]
		}
		l.cmds = append(l.cmds, cmd)
	}
	l.pos = len(l.cmds)
}

// older steps one command back, stopping at the oldest. Reports false
// only when nothing has been entered yet.
func (l *inputLog) older() (string, bool) {
	if len(l.cmds) == 0 {
		return "", false
	}
	if l.pos > 0 {
		l.pos--
	}
	return l.cmds[l.pos], true
}

// newer steps one command forward. Stepping past the newest entry
// reports false and returns to fresh input.
func (l *inputLog) newer() (string, bool) {
	if l.pos >= len(l.cmds) {
		return "", false
	}
	l.pos++
	if l.pos == len(l.cmds) {
		return "", false
	}
	return l.cmds[l.pos], true
}

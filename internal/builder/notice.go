package builder

import "time"

// NoticeKind 区分错误与成功提示。
type NoticeKind string

const (
	NoticeError   NoticeKind = "error"
	NoticeSuccess NoticeKind = "success"
)

// Default lifetimes of a notice before it clears itself.
const (
	ErrorNoticeTTL   = 5 * time.Second
	SuccessNoticeTTL = 3 * time.Second
)

// Notice is the single banner shown above the form.
type Notice struct {
	Kind NoticeKind
	Text string
}

// setNotice replaces the current notice and arms its auto-clear timer. Caller holds w.mu.
func (w *Workflow) setNotice(kind NoticeKind, text string) {
	w.clearNotice()

	n := &Notice{Kind: kind, Text: text}
	ttl := w.successTTL
	if kind == NoticeError {
		ttl = w.errorTTL
	}
	w.notice = n
	w.noticeTimer = time.AfterFunc(ttl, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		// 计时器可能已被新提示取代。
		if w.notice == n {
			w.notice = nil
			w.noticeTimer = nil
		}
	})
}

// clearNotice drops the notice and stops its timer. Caller holds w.mu.
func (w *Workflow) clearNotice() {
	if w.noticeTimer != nil {
		w.noticeTimer.Stop()
		w.noticeTimer = nil
	}
	w.notice = nil
}

// DismissNotice clears the banner immediately.
func (w *Workflow) DismissNotice() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clearNotice()
}

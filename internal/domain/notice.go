package domain

// NoticeKind selects how a transient notification is styled.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
	NoticeWarning NoticeKind = "warning"
)

// Notice is a one-shot notification for the presentation layer to show.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

func NewNotice(kind NoticeKind, message string) *Notice {
	return &Notice{Kind: kind, Message: message}
}

package viewmodels

// Confirmer is asked before anything destructive happens. Returning false
// cancels the action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

var (
	// Always confirms every prompt.
	Always Confirmer = ConfirmFunc(func(string) bool { return true })
	// Never declines every prompt.
	Never Confirmer = ConfirmFunc(func(string) bool { return false })
)

const (
	DeletePostPrompt    = "Are you sure you want to delete this post?"
	DeleteCommentPrompt = "Are you sure you want to delete this comment?"
)

func confirmed(c Confirmer, prompt string) bool {
	return c != nil && c.Confirm(prompt)
}

package driven

// Prompt names known to the PromptStore.
const (
	PromptSystem = "system"
)

// PromptStore loads user-editable prompt templates.
type PromptStore interface {
	// Load returns the prompt with the given name, falling back to the
	// built-in default when no user file exists.
	Load(name string) (string, error)
}

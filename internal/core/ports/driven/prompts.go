package driven

// Prompt names.
const (
	// PromptChatSystem instructs the chat model how to use retrieved context.
	PromptChatSystem = "chat_system"
)

// PromptStore loads user-editable prompt templates.
type PromptStore interface {
	// Load returns the prompt with the given name.
	Load(name string) (string, error)
}

package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Render loads the named template and fills its %s placeholders with
	// args in order.
	Render(name string, args ...any) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptScope generates a scope record.
	// The template expects %s placeholders for reference context and raw input.
	PromptScope = "scope"

	// PromptFramework generates a framework record.
	// The template expects %s placeholders for the scope JSON, reference
	// context and raw notes.
	PromptFramework = "framework"

	// PromptRepair asks the model to fix broken JSON.
	// The template expects %s placeholders for the schema name, the first
	// field name and the broken text.
	PromptRepair = "repair"
)

// PromptNames returns all well-known prompt names.
func PromptNames() []string {
	return []string{PromptScope, PromptFramework, PromptRepair}
}

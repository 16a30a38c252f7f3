// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - PromptStore: user-editable prompt templates under the data directory
package file

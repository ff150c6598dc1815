// Package file provides file-based stores for user-editable settings.
//
// Adapters:
//   - ConfigStore: key-level editing of config.toml ("docsync config set")
//   - PromptStore: prompt templates under ~/.docsync/prompts
package file

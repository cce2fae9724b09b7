// Package llmfactory provides the configuration of the language model
// and creates the model client for the configured provider.
package llmfactory

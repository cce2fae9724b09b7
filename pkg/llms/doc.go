// Package llms provides unified support for interacting with different Language Models (LLMs) from various providers.
//
// Each subpackage includes a provider-specific implementation of the Model interface.
// The internal directories within these subpackages contain provider-specific
// client and API implementations.
//
// The `llms.go` file contains the types and interfaces for interacting with different LLMs.
//
// The `reply.go` file interprets a ContentResponse as either a TextAnswer or ToolRequests.
//
// The `options.go` file provides various options and functions to configure the LLMs.
package llms

//go:generate mockgen -destination=../../mocks/mockllms/llm_mock.gen.go -package mockllms github.com/effective-security/mcpclient/pkg/llms Model

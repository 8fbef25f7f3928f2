// Package denied is the Go client SDK for the Denied authorization
// decision service. It provides the canonical entity model
// (Subject/Resource/Action), flexible input coercion, and an HTTP client
// for single and bulk permission checks.
//
// The gate package wraps the client with retry and fail-open/fail-closed
// policy, and the integrations packages adapt the SDK to agent
// frameworks' tool-interception hooks.
package denied

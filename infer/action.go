// Package infer maps tool names and shell commands to canonical
// authorization action verbs (read, create, update, delete, execute).
//
// The mapping is a heuristic: callers that know the real action should
// supply it explicitly instead.
package infer

import (
	"regexp"
	"strings"
)

// Canonical action verbs.
const (
	ActionRead    = "read"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionExecute = "execute"
)

// builtinActions maps well-known agent built-in tool names (lowercased)
// to verbs. Exact matches win over stem patterns.
var builtinActions = map[string]string{
	"read":                 ActionRead,
	"glob":                 ActionRead,
	"grep":                 ActionRead,
	"webfetch":             ActionRead,
	"websearch":            ActionRead,
	"listmcpresourcestool": ActionRead,
	"readmcpresourcetool":  ActionRead,
	"write":                ActionCreate,
	"edit":                 ActionUpdate,
	"multiedit":            ActionUpdate,
	"notebookedit":         ActionUpdate,
	"bash":                 ActionExecute,
	"task":                 ActionExecute,
	"todowrite":            ActionExecute,
	"killshell":            ActionExecute,
}

// stemPattern compiles a verb-stem alternation that matches at the start
// of the name or after a separator, and ends at a separator or the end of
// the name. Exact stem boundaries keep "unshare" from matching "share".
func stemPattern(stems string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[_\-])(` + stems + `)([_\-]|$)`)
}

// stemActions is evaluated in order, first match wins. Delete is checked
// before create and read so overlapping stems resolve to the most
// destructive verb; the compound group (share, merge, ...) comes after
// the plain verb groups.
var stemActions = []struct {
	pattern *regexp.Regexp
	action  string
}{
	{stemPattern(`delete|remove|drop|unshare`), ActionDelete},
	{stemPattern(`write|create|add|insert|post|save|send|upload`), ActionCreate},
	{stemPattern(`update|modify|edit|change|set|patch|rename|mark`), ActionUpdate},
	{stemPattern(`read|get|fetch|load|list|search|query|retrieve`), ActionRead},
	{stemPattern(`share|merge|fork|copy|move|lock|unlock|restore`), ActionUpdate},
	{stemPattern(`execute|run|call|invoke|batch`), ActionExecute},
}

// Action infers the canonical verb for a tool invocation. For generic
// shell tools carrying a "command" string in toolInput, the command text
// decides the verb, since a shell tool can perform any action. Unmatched
// names fall back to "execute".
func Action(toolName string, toolInput map[string]any) string {
	lower := strings.ToLower(toolName)

	if isShellTool(lower) {
		if cmd, ok := toolInput["command"].(string); ok && cmd != "" {
			return classifyCommand(cmd)
		}
	}

	if action, ok := builtinActions[lower]; ok {
		return action
	}

	for _, sa := range stemActions {
		if sa.pattern.MatchString(toolName) {
			return sa.action
		}
	}

	return ActionExecute
}

func isShellTool(lowerName string) bool {
	return lowerName == "bash" || lowerName == "shell"
}

// redirectPattern matches an output redirection (> or >>) that is not
// part of a pipe or a here-doc style token.
var redirectPattern = regexp.MustCompile(`(^|[^|<>])>{1,2}\s*\S`)

// commandClassPattern matches any of the given command words at the start
// of the command line or right after a shell separator (;, &&, ||, |) or
// sudo.
func commandClassPattern(words string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[;&|]\s*|\bsudo\s+)(` + words + `)\b`)
}

// commandActions is evaluated most-specific-first. Redirection is checked
// separately before any of these because it turns an otherwise read-only
// command (echo, cat) into a write.
var commandActions = []struct {
	pattern *regexp.Regexp
	action  string
}{
	{commandClassPattern(`cp|mv|mkdir|touch|rsync|scp|tee|dd`), ActionCreate},
	{commandClassPattern(`rm|rmdir|unlink`), ActionDelete},
	{regexp.MustCompile(`(?i)(^|[;&|]\s*|\bsudo\s+)sed\s+(-[a-z]*\s+)*-i\b`), ActionUpdate},
	{commandClassPattern(`chmod|chown|chgrp`), ActionUpdate},
	{commandClassPattern(`ls|cat|head|tail|less|more|grep|find|pwd|whoami|echo|stat|diff|which|env|date|uname`), ActionRead},
}

// classifyCommand scans a shell command string and returns the verb for
// its dominant effect.
func classifyCommand(command string) string {
	if redirectPattern.MatchString(command) {
		return ActionCreate
	}
	for _, ca := range commandActions {
		if ca.pattern.MatchString(command) {
			return ca.action
		}
	}
	return ActionExecute
}

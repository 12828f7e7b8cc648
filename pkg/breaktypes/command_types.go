// Package breaktypes defines command system types for luabreak.
// This file contains the types for command registration, help information,
// and the Lua binding surface of script-visible commands.
package breaktypes

import (
	lua "github.com/yuin/gopher-lua"
)

// Command defines the interface that all luabreak script commands implement.
// Commands are installed into each session's Lua state under their module
// table; exported commands additionally appear in the module's export list
// and are therefore visible to debug-mode enumeration.
type Command interface {
	Name() string
	Module() string
	Exported() bool
	Description() string
	Usage() string
	HelpInfo() HelpInfo

	// LuaFunc returns the Lua-callable body of the command, bound to the
	// given session. The engine wraps the returned function with breakpoint
	// interception before installing it.
	LuaFunc(sess Session) lua.LGFunction
}

// HelpInfo represents structured help information for a command.
type HelpInfo struct {
	Command     string        `json:"command"`
	Description string        `json:"description"`
	Usage       string        `json:"usage"`
	Options     []HelpOption  `json:"options,omitempty"`
	Examples    []HelpExample `json:"examples,omitempty"`
	Notes       []string      `json:"notes,omitempty"`
}

// HelpOption represents a command option/parameter with detailed information.
type HelpOption struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
}

// HelpExample represents a usage example with explanation.
type HelpExample struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

package models

import "strings"

// Command is the ordered argument list of a step invocation.
//
// The canonical serialized form is the single space-joined string, so
// tokens that themselves contain whitespace do not survive a round trip;
// recorded commands are token lists, not shell syntax.
type Command []string

// CommandFromString splits s on whitespace into tokens.
func CommandFromString(s string) Command {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return Command(fields)
}

// CommandFromArgs copies args into a Command.
func CommandFromArgs(args []string) Command {
	if len(args) == 0 {
		return nil
	}
	out := make(Command, len(args))
	copy(out, args)
	return out
}

// String returns the canonical space-joined form.
func (c Command) String() string {
	return strings.Join([]string(c), " ")
}

// Clone copies the token list.
func (c Command) Clone() Command {
	if c == nil {
		return nil
	}
	out := make(Command, len(c))
	copy(out, c)
	return out
}

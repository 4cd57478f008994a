package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"wisp/lexer"
	"wisp/object"
	"wisp/token"
	"wisp/vm"
)

// replCmd runs an interactive session, re-using one VM and registry across
// every line so globals persist between entries the way a real session
// would expect.
type replCmd struct {
	debug bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive read-compile-run loop.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.debug, "debug", false, "print each compiled chunk and execution step to stdout")
}

func (r *replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitSoftware
	}
	defer rl.Close()

	registry := object.NewRegistry()
	machine := vm.New(registry, r.debug)

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				buffer.Reset()
				continue
			}
			return subcommands.ExitSuccess // EOF
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)

		source := buffer.String()
		if !inputReady(source) {
			continue
		}

		if err := machine.Interpret(source); err != nil {
			reportInterpretError(err)
		}
		buffer.Reset()
	}
}

// inputReady reports whether source looks like a complete statement: its
// braces balance, and it doesn't end on a token that obviously expects a
// continuation. It lets the REPL accept multi-line blocks the way typing
// them at a single ">>> " prompt never could.
func inputReady(source string) bool {
	tokens := scanAll(source)

	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LeftBrace:
			depth++
		case token.RightBrace:
			depth--
		}
	}
	if depth > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.Type {
	case token.Plus, token.Minus, token.Star, token.Slash, token.Bang,
		token.Equal, token.EqualEqual, token.BangEqual,
		token.Less, token.LessEqual, token.Greater, token.GreaterEqual,
		token.Comma, token.LeftParen, token.LeftBrace,
		token.And, token.Or,
		token.Class, token.Else, token.For, token.Fun, token.If,
		token.Return, token.Var, token.While, token.Print:
		return false
	}
	return true
}

func scanAll(source string) []token.Token {
	l := lexer.New(source)
	var tokens []token.Token
	for {
		tok := l.ScanToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Type != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

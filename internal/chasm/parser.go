package chasm

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// DefaultPumpSpeed is the speed in mL/min used for MOVE and HOME when the
// script omits move_speed.
const DefaultPumpSpeed = 50.0

// Option configures the parser.
type Option func(*parser)

// WithDefaultPumpSpeed overrides the speed substituted for an omitted
// move_speed argument.
func WithDefaultPumpSpeed(speed float64) Option {
	return func(p *parser) {
		p.defaultSpeed = speed
	}
}

type parser struct {
	defaultSpeed float64
}

// Parse validates an entire ChASM script and returns the ordered command
// sequence. All lines are checked before returning: on failure every
// offending line is reported (joined ParseErrors), and no commands are
// returned.
func Parse(script string, opts ...Option) ([]Command, error) {
	p := &parser{defaultSpeed: DefaultPumpSpeed}
	for _, opt := range opts {
		opt(p)
	}

	var (
		cmds []Command
		errs []error
	)

	scanner := bufio.NewScanner(strings.NewReader(script))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		cmd, err := p.parseLine(line, text)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cmds = append(cmds, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	if len(errs) > 0 {
		slog.Debug("script rejected", "lines", line, "errors", len(errs))
		return nil, errors.Join(errs...)
	}

	slog.Debug("script parsed", "lines", line, "commands", len(cmds))
	return cmds, nil
}

func (p *parser) parseLine(line int, text string) (Command, error) {
	fields := strings.Fields(text)
	verb := Verb(fields[0])
	tokens := fields[1:]

	sig, ok := grammar[verb]
	if !ok {
		return Command{}, unknownCommand(line, fields[0])
	}

	minArgs := len(sig.req)
	maxArgs := minArgs + len(sig.opt)
	if len(tokens) < minArgs || len(tokens) > maxArgs {
		want := strconv.Itoa(minArgs)
		if maxArgs > minArgs {
			want = fmt.Sprintf("%d to %d", minArgs, maxArgs)
		}
		return Command{}, argumentCount(line, string(verb), want, len(tokens))
	}

	args := make([]Value, 0, maxArgs)
	for i, tok := range tokens {
		var spec argSpec
		if i < minArgs {
			spec = sig.req[i]
		} else {
			spec = sig.opt[i-minArgs]
		}
		v, err := parseArg(line, string(verb), i, tok, spec.kind)
		if err != nil {
			return Command{}, err
		}
		args = append(args, v)
	}

	cmd := Command{Verb: verb, Line: line, Args: args}
	p.applyDefaults(&cmd)
	return cmd, nil
}

// applyDefaults resolves the trailing-argument cascade for verbs with
// optional speeds. For MOVE: move_speed defaults to the configured pump
// speed, and aspiration_speed/dispense_speed each default to the resolved
// move_speed. After this every command carries its full argument list.
func (p *parser) applyDefaults(cmd *Command) {
	switch cmd.Verb {
	case VerbMove:
		if len(cmd.Args) < 4 {
			cmd.Args = append(cmd.Args, Value{Kind: KindNumber, Num: p.defaultSpeed})
		}
		moveSpeed := cmd.Args[3].Num
		for len(cmd.Args) < 6 {
			cmd.Args = append(cmd.Args, Value{Kind: KindNumber, Num: moveSpeed})
		}
	case VerbHome:
		if len(cmd.Args) < 2 {
			cmd.Args = append(cmd.Args, Value{Kind: KindNumber, Num: p.defaultSpeed})
		}
	}
}

func parseArg(line int, verb string, pos int, tok string, kind argKind) (Value, error) {
	switch kind {
	case argNode:
		return Value{Kind: KindNode, Str: tok}, nil

	case argVolume:
		if strings.EqualFold(tok, "all") {
			return Value{Kind: KindAll}, nil
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil || f < 0 {
			return Value{}, argumentType(line, verb, pos, tok, kind.want())
		}
		return Value{Kind: KindNumber, Num: f}, nil

	case argFloat:
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Value{}, argumentType(line, verb, pos, tok, kind.want())
		}
		return Value{Kind: KindNumber, Num: f}, nil

	case argSpeed:
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil || f <= 0 {
			return Value{}, argumentType(line, verb, pos, tok, kind.want())
		}
		return Value{Kind: KindNumber, Num: f}, nil

	case argInt:
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil || f < 0 || f != math.Trunc(f) {
			return Value{}, argumentType(line, verb, pos, tok, kind.want())
		}
		return Value{Kind: KindNumber, Num: f}, nil
	}
	return Value{}, argumentType(line, verb, pos, tok, kind.want())
}

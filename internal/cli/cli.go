// Package cli parses openspeech command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandRecord  Command = "record"
	CommandStop    Command = "stop"
	CommandUpload  Command = "upload"
	CommandDelete  Command = "delete"
	CommandClips   Command = "clips"
	CommandStatus  Command = "status"
	CommandServe   Command = "serve"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandReset   Command = "reset"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRecord:  {},
	CommandStop:    {},
	CommandUpload:  {},
	CommandDelete:  {},
	CommandClips:   {},
	CommandStatus:  {},
	CommandServe:   {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandReset:   {},
	CommandVersion: {},
	CommandHelp:    {},
}

// Forwarded reports whether the command is sent to a running session.
func (c Command) Forwarded() bool {
	switch c {
	case CommandStop, CommandUpload, CommandDelete, CommandClips:
		return true
	default:
		return false
	}
}

type Parsed struct {
	Command    Command
	ConfigPath string
	EnvPath    string
	ClipID     int
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config", "--env":
			i++
			if i >= len(args) {
				return Parsed{}, fmt.Errorf("%s requires a path", arg)
			}
			if arg == "--config" {
				parsed.ConfigPath = args[i]
			} else {
				parsed.EnvPath = args[i]
			}
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			rest := args[i+1:]
			if cmd == CommandDelete {
				id, err := parseClipID(rest)
				if err != nil {
					return Parsed{}, err
				}
				parsed.ClipID = id
				return parsed, nil
			}
			if len(rest) != 0 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func parseClipID(rest []string) (int, error) {
	if len(rest) != 1 {
		return 0, errors.New("delete requires exactly one clip id")
	}
	id, err := strconv.Atoi(rest[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid clip id %q", rest[0])
	}
	return id, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>
  %[1]s [--env PATH] serve

Recording:
  record    Start a recording session (owns the session until upload completes)
  stop      Stop the current countdown or capture
  upload    Upload the recorded clips
  delete N  Delete clip N so its word is asked again
  clips     List recorded clips
  status    Print session state and progress

Server:
  serve     Run the collection server

Other:
  devices   List available input devices
  doctor    Run configuration, audio, and server checks
  reset     Forget the server session and completion flag
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/openspeech/config.jsonc)
  --env PATH      Server .env file (default: $ENV_PATH or ./.env)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}

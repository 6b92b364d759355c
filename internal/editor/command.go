package editor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/kobzarvs/qnote/internal/logger"
)

const helpText = "ctrl+z undo  ctrl+y redo  ctrl+g ask  ctrl+t rewrite  ctrl+s save  ctrl+o open  ctrl+n new  ctrl+q quit  :set key value"

// execCommand runs a ":" command line. It reports true when the editor
// should quit.
func (e *Editor) execCommand(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	fields, err := shlex.Split(line)
	if err != nil {
		e.setStatus("parse command: " + err.Error())
		return false
	}
	if len(fields) == 0 {
		return false
	}
	name := fields[0]
	args := fields[1:]
	logger.Debug("command", "name", name, "args", len(args))

	switch name {
	case "w":
		e.saveWithStatus(strings.Join(args, " "))
		return false
	case "wq", "x":
		return e.saveWithStatus(strings.Join(args, " "))
	case "e":
		if len(args) == 0 {
			e.setStatus("usage: e <path>")
			return false
		}
		if err := e.OpenFile(strings.Join(args, " ")); err != nil {
			e.setStatus("Error opening file: " + err.Error())
		}
		return false
	case "new":
		if e.Dirty() {
			e.setStatus("unsaved changes (use :new!)")
			return false
		}
		e.NewFile()
		return false
	case "new!":
		e.NewFile()
		return false
	case "q":
		if e.Dirty() {
			e.setStatus("unsaved changes (use :q!)")
			return false
		}
		return true
	case "q!":
		return true
	case "ask":
		e.Ask()
		return false
	case "ai":
		e.Rewrite(strings.Join(args, " "))
		return false
	case "undo":
		e.Undo()
		return false
	case "redo":
		e.Redo()
		return false
	case "set":
		if len(args) != 2 {
			e.setStatus("usage: set <key> <value>")
			return false
		}
		if err := e.setOption(args[0], args[1]); err != nil {
			e.setStatus(err.Error())
			return false
		}
		e.setStatus(args[0] + " saved")
		return false
	case "help", "h":
		e.setStatus(helpText)
		return false
	default:
		e.setStatus("unknown command: " + name)
		return false
	}
}

// setOption changes one setting, persists the configuration and applies it.
func (e *Editor) setOption(key, value string) error {
	cfg := e.cfg
	switch key {
	case "api-key":
		cfg.AI.SetAPIKey(value)
	case "model":
		cfg.AI.Model = value
	case "max-tokens":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 || n > math.MaxInt32 {
			return fmt.Errorf("max-tokens: want a number from 1 to %d, got %q", math.MaxInt32, value)
		}
		cfg.AI.MaxTokens = n
	case "tab-width":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("tab-width: want a positive number, got %q", value)
		}
		cfg.Editor.TabWidth = n
	case "background":
		cfg.Theme.Background = value
	case "foreground":
		cfg.Theme.Foreground = value
	default:
		return fmt.Errorf("unknown option: %s", key)
	}
	if err := e.opts.SaveConfig(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	e.ApplyConfig(cfg)
	return nil
}

// Package cli handles cmd line input and suggestions for debugging the index
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/tstserve/internal/logger"
	"github.com/bastiangx/tstserve/internal/utils"
	"github.com/bastiangx/tstserve/pkg/suggest"
	"github.com/charmbracelet/log"
)

// Options control prefix validation and result counts.
type Options struct {
	MinPrefix       int
	MaxPrefix       int
	Limit           int
	OnlyMorePopular bool
	NoFilter        bool
}

// InputHandler reads prefixes line by line and prints suggestions.
// Lines starting with ':' are commands:
//
//	:add <word> [weight]
//	:get <word>
//	:stats
type InputHandler struct {
	suggester suggest.Suggester
	opts      Options
	in        io.Reader
	logger    *log.Logger
}

// NewInputHandler creates a handler reading stdin.
func NewInputHandler(suggester suggest.Suggester, opts Options) *InputHandler {
	return NewInputHandlerIO(suggester, opts, os.Stdin, os.Stderr)
}

// NewInputHandlerIO creates a handler reading in and printing to out.
func NewInputHandlerIO(suggester suggest.Suggester, opts Options, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		suggester: suggester,
		opts:      opts,
		in:        in,
		logger:    logger.NewWithConfig(out, "", log.GetLevel(), false, false, log.TextFormatter),
	}
}

// Start runs the input loop until the input ends.
func (h *InputHandler) Start() error {
	h.logger.Print("tstserve CLI")
	h.logger.Print("type a prefix and press Enter to see the suggestions (Ctrl+C to exit):")

	reader := bufio.NewReader(h.in)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			h.handleLine(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (h *InputHandler) handleLine(line string) {
	if strings.HasPrefix(line, ":") {
		h.handleCommand(strings.Fields(line[1:]))
		return
	}
	h.handleInput(line)
}

func (h *InputHandler) handleCommand(args []string) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "add":
		if len(args) < 2 {
			h.logger.Error("usage: :add <word> [weight]")
			return
		}
		weight := float32(1)
		if len(args) > 2 {
			w, err := strconv.ParseFloat(args[2], 32)
			if err != nil {
				h.logger.Errorf("invalid weight %q", args[2])
				return
			}
			weight = float32(w)
		}
		h.suggester.Add(args[1], weight)
		h.logger.Printf("added %s (%g)", args[1], weight)
	case "get":
		if len(args) < 2 {
			h.logger.Error("usage: :get <word>")
			return
		}
		if weight, ok := h.suggester.Get(args[1]); ok {
			h.logger.Printf("%s: %g", args[1], weight)
		} else {
			h.logger.Printf("%s: not found", args[1])
		}
	case "stats":
		s := h.suggester.Stats()
		h.logger.Printf("terms=%d nodes=%d max_depth=%d", s.Terms, s.Nodes, s.MaxDepth)
	default:
		h.logger.Errorf("unknown command: %s", args[0])
	}
}

// handleInput validates a prefix and prints its suggestions.
func (h *InputHandler) handleInput(prefix string) {
	n := utf8.RuneCountInString(prefix)
	if n < h.opts.MinPrefix {
		h.logger.Errorf("Prefix too short: %s", prefix)
		return
	}
	if n > h.opts.MaxPrefix {
		h.logger.Errorf("Prefix too long: %s", prefix)
		return
	}
	if !h.opts.NoFilter && !utils.IsValidInput(prefix) {
		h.logger.Infof("No results found for prefix: '%s'", prefix)
		return
	}

	start := time.Now()
	suggestions := h.suggester.Lookup(prefix, h.opts.OnlyMorePopular, h.opts.Limit)
	h.logger.Debugf("Took [ %v ] for prefix '%s'", time.Since(start), prefix)

	if len(suggestions) == 0 {
		h.logger.Warnf("No suggestions found for prefix: '%s'", prefix)
		return
	}

	h.logger.Printf("Found %d suggestions for prefix '%s':", len(suggestions), prefix)
	for i, s := range suggestions {
		word := fmt.Sprintf("\033[38;5;75m%s\033[0m", s.Word)
		h.logger.Printf("%2d. %-40s (weight: %g)", i+1, word, s.Weight)
	}
}

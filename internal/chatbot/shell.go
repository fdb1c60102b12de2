package chatbot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"TheraChat/internal/export"
	"TheraChat/internal/session"
)

const banner = `=== TheraChat ===
A supportive conversational assistant. Not a replacement for a licensed therapist.

  * This assistant offers supportive conversation and coping suggestions, not medical diagnosis or therapy.
  * If you or someone else is in immediate danger, call local emergency services (e.g. 112 in India, 911 in the US).
  * For urgent suicidal thoughts, contact a crisis helpline or local emergency service right away.
`

// handleCommand handles special commands
func (cb *ChatBot) handleCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/reset":
		cb.Reset()
		fmt.Fprintln(cb.out, "Conversation reset.")
		return false, nil

	case "/export":
		path := ""
		if len(parts) > 1 {
			path = parts[1]
		}
		written, err := cb.Export(path)
		if errors.Is(err, export.ErrNothingToExport) {
			fmt.Fprintln(cb.out, "No conversation to export.")
			return false, nil
		}
		if err != nil {
			return false, err
		}
		fmt.Fprintf(cb.out, "Conversation saved to %s\n", written)
		return false, nil

	case "/history":
		err := export.Write(cb.out, cb.transcript.Messages())
		if errors.Is(err, export.ErrNothingToExport) {
			fmt.Fprintln(cb.out, "No conversation yet.")
			return false, nil
		}
		if err != nil {
			return false, err
		}
		fmt.Fprintln(cb.out)
		return false, nil

	case "/settings":
		cb.printSettings()
		return false, nil

	case "/summarize":
		reply, err := cb.Summarize(ctx)
		if errors.Is(err, ErrNoReply) {
			fmt.Fprintln(cb.out, "Nothing to summarize yet. Send a message first.")
			return false, nil
		}
		if err != nil {
			return false, err
		}
		cb.printReply(reply)
		return false, nil

	case "/models":
		models, err := cb.ListModels(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to list models: %w", err)
		}
		fmt.Fprintln(cb.out, "\nAvailable models:")
		for i, name := range models {
			current := ""
			if name == cb.client.Model() {
				current = " (current)"
			}
			fmt.Fprintf(cb.out, "%d. %s%s\n", i+1, name, current)
		}
		fmt.Fprintln(cb.out)
		return false, nil

	case "/temp":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /temp <0.0-1.0>")
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return false, fmt.Errorf("invalid temperature %q", parts[1])
		}
		if err := cb.SetTemperature(v); err != nil {
			return false, err
		}
		fmt.Fprintf(cb.out, "Temperature set to %.2f\n", v)
		return false, nil

	case "/max-tokens":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /max-tokens <128-2048>")
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return false, fmt.Errorf("invalid token count %q", parts[1])
		}
		if err := cb.SetMaxTokens(n); err != nil {
			return false, err
		}
		fmt.Fprintf(cb.out, "Max tokens set to %d\n", n)
		return false, nil

	case "/help":
		fmt.Fprintln(cb.out, "Available commands:")
		fmt.Fprintln(cb.out, "  /history             - Show the conversation so far")
		fmt.Fprintln(cb.out, "  /reset               - Clear the conversation")
		fmt.Fprintln(cb.out, "  /export [path]       - Save the conversation as plain text")
		fmt.Fprintln(cb.out, "  /summarize           - Ask for a short summary of the last reply")
		fmt.Fprintln(cb.out, "  /models              - List models offered by the backend")
		fmt.Fprintln(cb.out, "  /temp <0.0-1.0>      - Set creativity (temperature)")
		fmt.Fprintln(cb.out, "  /max-tokens <n>      - Set the reply token limit (128-2048)")
		fmt.Fprintln(cb.out, "  /settings            - Show the current generation settings")
		fmt.Fprintln(cb.out, "  /help                - Show this help message")
		fmt.Fprintln(cb.out, "  /quit, /exit         - Exit")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s (type /help)", parts[0])
	}
}

func (cb *ChatBot) printSettings() {
	temp, maxTokens := cb.Settings()
	fmt.Fprintf(cb.out, "Settings: temperature %.2f, max tokens %d\n", temp, maxTokens)
}

func (cb *ChatBot) printReply(reply Reply) {
	fmt.Fprintf(cb.out, "Assistant [%s]: %s\n\n", reply.Message.Timestamp, reply.Message.Text)
	if cb.CanSummarize() && reply.Outcome == OutcomeModel {
		fmt.Fprintln(cb.out, "(Type more, or /summarize for a short summary of this reply.)")
		fmt.Fprintln(cb.out)
	}
}

// readLine reads one line of any length. ok is false once input is exhausted.
func readLine(r *bufio.Reader) (line string, ok bool, err error) {
	line, err = r.ReadString('\n')
	if errors.Is(err, io.EOF) {
		return line, line != "", nil
	}
	if err != nil {
		return "", false, err
	}
	return line, true, nil
}

// Run starts the interactive loop and returns when input ends or the user quits.
func (cb *ChatBot) Run(ctx context.Context) error {
	fmt.Fprint(cb.out, banner)
	fmt.Fprintln(cb.out)
	fmt.Fprintf(cb.out, "Session: %s (started %s)\n", cb.transcript.ID, cb.transcript.StartTime.Format(session.TimestampLayout))
	if cb.SendEnabled() {
		fmt.Fprintf(cb.out, "Backend: %s (%s)\n", cb.client.Name(), cb.client.Model())
		cb.printSettings()
	} else {
		fmt.Fprintln(cb.out, "No model backend is configured: sending is disabled. /export and /reset still work.")
	}
	fmt.Fprintln(cb.out, "Say hi to start a conversation. Example: 'I've been feeling anxious about work lately.'")
	fmt.Fprintln(cb.out, "Type /help for commands, /quit to exit")
	fmt.Fprintln(cb.out)

	reader := bufio.NewReader(cb.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(cb.out, "You: ")
		line, ok, err := readLine(reader)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if !ok {
			break
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := cb.handleCommand(ctx, input)
			if err != nil {
				fmt.Fprintf(cb.out, "Error: %v\n", err)
				cb.logger.Error("command error", "command", strings.Fields(input)[0], "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		reply, err := cb.Send(ctx, input)
		if errors.Is(err, ErrNoBackend) {
			fmt.Fprintln(cb.out, "Sending is disabled because no model backend is configured.")
			continue
		}
		if err != nil {
			fmt.Fprintf(cb.out, "Error: %v\n", err)
			cb.logger.Error("failed to send message", "error", err)
			continue
		}
		cb.printReply(reply)
	}

	fmt.Fprintln(cb.out, "Goodbye!")
	return nil
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ziee-ai/ziee-go/internal/api"
	"github.com/ziee-ai/ziee-go/internal/config"
	"github.com/ziee-ai/ziee-go/internal/transcript"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the configured model",
	Long: `Chat sends one message when given as an argument, or starts an
interactive session when called without one. Replies stream token by
token. Both sides of the exchange are recorded to the local transcript
store unless --no-save is given.

Examples:
  ziee chat "explain io.Pipe in two sentences"
  ziee chat --model claude-sonnet --title "Pipe questions"
  ziee chat --conversation 6e9f...  # continue an existing conversation`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("conversation", "", "continue an existing conversation by id")
	chatCmd.Flags().String("model", "", "model id, alias or name (default: chat.default_model)")
	chatCmd.Flags().String("title", "", "title for a new conversation")
	chatCmd.Flags().Bool("no-save", false, "skip recording the exchange locally")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	modelRef, _ := cmd.Flags().GetString("model")
	if modelRef == "" {
		modelRef = cfg.Chat.DefaultModel
	}
	modelID, err := resolveModelRef(ctx, client, modelRef)
	if err != nil {
		return err
	}

	var convID uuid.UUID
	if raw, _ := cmd.Flags().GetString("conversation"); raw != "" {
		convID, err = uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid conversation id: %w", err)
		}
	} else {
		title, _ := cmd.Flags().GetString("title")
		conv, err := client.CreateConversation(ctx, api.CreateConversationRequest{Title: title, ModelID: &modelID})
		if err != nil {
			return fmt.Errorf("creating conversation: %w", err)
		}
		convID = conv.ID
		printStep("Conversation %s", convID)
	}

	var recorder *transcript.Store
	if noSave, _ := cmd.Flags().GetBool("no-save"); !noSave {
		recorder, err = transcript.Open(cfg.Storage.DataDir)
		if err != nil {
			printWarning("transcript store unavailable: %v", err)
		} else {
			defer recorder.Close()
		}
	}

	if len(args) > 0 {
		return chatOnce(ctx, client, recorder, convID, modelID, strings.Join(args, " "))
	}

	printStep("Interactive chat; exit, quit or Ctrl-D ends the session")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(os.Stderr)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := chatOnce(ctx, client, recorder, convID, modelID, line); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			printError("%v", err)
		}
	}
	return scanner.Err()
}

// chatOnce sends one message, streams the reply to stdout and records both
// sides to the transcript store when one is open.
func chatOnce(ctx context.Context, client *api.Client, recorder *transcript.Store, convID, modelID uuid.UUID, content string) error {
	reply, title, err := streamReply(ctx, client, os.Stdout, api.SendMessageRequest{
		ConversationID: convID,
		Content:        content,
		Role:           "user",
		ModelID:        modelID,
	})
	if err != nil {
		return err
	}
	if recorder == nil {
		return nil
	}

	record := func(role, text string) {
		_, err := recorder.AppendMessage(transcript.Message{
			ConversationID: convID.String(),
			Role:           role,
			Content:        text,
			Model:          modelID.String(),
		})
		if err != nil {
			printWarning("recording %s message: %v", role, err)
		}
	}
	record("user", content)
	record("assistant", reply)
	if title != "" {
		if err := recorder.SetTitle(convID.String(), title); err != nil {
			printWarning("recording title: %v", err)
		}
	}
	return nil
}

// streamReply runs one chat exchange, writing assistant deltas to out as
// they arrive. It returns the assembled reply and the regenerated
// conversation title, if the server produced one.
func streamReply(ctx context.Context, client *api.Client, out io.Writer, req api.SendMessageRequest) (reply, title string, err error) {
	var buf strings.Builder
	var streamErr error

	h := api.ChatStreamHandlers{
		ContentChunk: func(e api.ContentChunkEvent) {
			buf.WriteString(e.Delta)
			fmt.Fprint(out, e.Delta)
		},
		ToolCall: func(e api.ToolCallEvent) {
			printStep("Tool call: %s", e.ToolName)
		},
		ToolResult: func(e api.ToolResultEvent) {
			if e.Success {
				return
			}
			msg := "failed"
			if e.ErrorMessage != nil {
				msg = *e.ErrorMessage
			}
			printWarning("Tool result: %s", msg)
		},
		TitleUpdated: func(e api.TitleUpdatedEvent) {
			title = e.Title
		},
		MaxIteration: func(e api.MaxIterationEvent) {
			printWarning("Tool loop stopped after %d iterations", e.Iteration)
		},
		Error: func(e api.StreamErrorEvent) {
			streamErr = fmt.Errorf("%s: %s", e.Code, e.Error)
		},
	}
	if err := client.SendMessage(ctx, req, h); err != nil {
		return "", "", err
	}
	if streamErr != nil {
		return "", "", streamErr
	}
	fmt.Fprintln(out)
	return buf.String(), title, nil
}

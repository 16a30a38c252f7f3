package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

var (
	chatDomain   string
	chatProcess  string
	chatMethod   string
	chatParams   []string
	chatTopN     int
	chatTextIDs  []string
	chatQuestion string
	chatSources  bool
)

// chatInput is where the REPL reads questions from.
var chatInput io.Reader = os.Stdin

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about a domain",
	Long: `Starts a conversation grounded in a domain's chunks. Each question is
answered from the chunks of one embedding run that fit the model's context
window. Enter an empty line or "exit" to quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	f := chatCmd.Flags()
	f.StringVarP(&chatDomain, "domain", "d", "", "domain name or ID")
	f.StringVarP(&chatProcess, "embedding", "e", "", "embedding run ID")
	f.StringVarP(&chatMethod, "method", "m", "cosine", "retrieval method")
	f.StringArrayVarP(&chatParams, "param", "p", nil, "retrieval parameter as key=value (repeatable)")
	f.IntVarP(&chatTopN, "top", "n", 5, "chunks retrieved per question")
	f.StringSliceVar(&chatTextIDs, "text", nil, "restrict to these text IDs")
	f.StringVarP(&chatQuestion, "question", "q", "", "ask one question and exit")
	f.BoolVar(&chatSources, "sources", false, "print the chunks each answer used")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatService == nil || !chatService.Available() {
		return fmt.Errorf("chat is not available: %w (set RAGBENCH_CHAT_PROVIDER)", domain.ErrLLMUnavailable)
	}

	ctx, stop := signalContext()
	defer stop()

	d, err := resolveDomain(ctx, chatDomain)
	if err != nil {
		return err
	}
	if chatProcess == "" {
		return errors.New("an embedding run is required (--embedding)")
	}
	params, err := parseParams(chatParams)
	if err != nil {
		return err
	}

	session := &domain.ChatSession{
		DomainID:           d.ID,
		TextIDs:            chatTextIDs,
		EmbeddingProcessID: chatProcess,
		Retriever:          chatMethod,
		RetrieverParams:    params,
		TopN:               chatTopN,
		ResponseBuffer:     defaultResponseBuffer,
	}

	if chatQuestion != "" {
		return ask(cmd, session, chatQuestion)
	}

	interactive := false
	if f, ok := chatInput.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	if interactive {
		cmd.Printf("Chatting with %s. Empty line or \"exit\" to quit.\n", d.Name)
	}

	scanner := bufio.NewScanner(chatInput)
	for {
		if interactive {
			cmd.Print("\n> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" || question == "exit" || question == "quit" {
			return nil
		}
		if err := ask(cmd, session, question); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// A failed turn does not end the conversation.
			cmd.PrintErrf("Error: %v\n", err)
		}
	}
}

func ask(cmd *cobra.Command, session *domain.ChatSession, question string) error {
	ctx, stop := signalContext()
	defer stop()

	reply, err := chatService.Ask(ctx, session, question)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	cmd.Println(reply.Answer)
	if chatSources {
		cmd.Println()
		for i := range reply.Context {
			c := reply.Context[i]
			cmd.Printf("  [%d] %s #%d (%.4f)\n", i+1, c.TextName, c.Chunk.Index, c.Score)
		}
	}
	return nil
}

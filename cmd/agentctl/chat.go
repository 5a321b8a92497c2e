package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"voice-agent-workers/internal/chat"
	"voice-agent-workers/internal/common/llm"
	"voice-agent-workers/internal/conversation/intent"
	"voice-agent-workers/internal/conversation/persona"
	"voice-agent-workers/internal/conversation/pipeline"
	"voice-agent-workers/internal/conversation/synthesis"
	"voice-agent-workers/internal/store"
)

func newChatCmd(flags *globalFlags) *cobra.Command {
	var (
		personaKey string
		message    string
		showJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agent from the terminal",
		Long: `Runs conversation turns through the full pipeline with an in-memory store
and local tool backends. With --message a single turn is run; otherwise
lines are read from stdin until EOF or "exit".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			log := flags.logger()

			registry, err := localRegistry(cfg, log)
			if err != nil {
				return err
			}
			personas, err := persona.LoadCatalog(cfg.Pipeline.PersonaFile, cfg.Pipeline.DefaultPersona)
			if err != nil {
				return err
			}
			client, err := llm.New(cfg.LLM, log)
			if err != nil {
				return err
			}

			controller := pipeline.NewController(
				intent.NewClassifier(client, log),
				registry,
				synthesis.NewSynthesizer(client, cfg.Pipeline.PromptHistory, log),
				pipeline.Options{HistoryWindow: cfg.Pipeline.HistoryWindow, Confidence: cfg.Pipeline.Confidence},
				log,
			)
			svc := chat.NewService(store.NewMemoryStore(), controller, personas, log,
				chat.WithHistoryWindow(cfg.Pipeline.HistoryWindow))

			session := &chatSession{svc: svc, persona: personaKey, out: cmd.OutOrStdout(), json: showJSON}
			if message != "" {
				return session.turn(cmd.Context(), message)
			}

			fmt.Fprintln(session.out, personas.Resolve(personaKey).Greeting)
			return session.loop(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVarP(&personaKey, "persona", "p", "", "persona key (defaults to the configured default persona)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "run a single turn with this message")
	cmd.Flags().BoolVar(&showJSON, "json", false, "print the full turn result as JSON")
	return cmd
}

type chatSession struct {
	svc            *chat.Service
	persona        string
	conversationID string
	out            io.Writer
	json           bool
}

func (s *chatSession) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if err := s.turn(ctx, line); err != nil {
			return err
		}
	}
}

func (s *chatSession) turn(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	reply, err := s.svc.Handle(ctx, chat.Request{
		ConversationID: s.conversationID,
		PersonaKey:     s.persona,
		Message:        text,
		Channel:        "cli",
	})
	if err != nil {
		return err
	}
	s.conversationID = reply.ConversationID

	if s.json {
		data, err := json.MarshalIndent(reply.Result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, string(data))
		return nil
	}

	fmt.Fprintln(s.out, reply.Response)
	res := reply.Result
	if len(res.ActionsTaken) > 0 {
		fmt.Fprintf(s.out, "  [intent=%s actions=%s next=%s]\n", res.Intent, strings.Join(res.ActionsTaken, ","), res.NextStep)
	} else {
		fmt.Fprintf(s.out, "  [intent=%s next=%s]\n", res.Intent, res.NextStep)
	}
	return nil
}

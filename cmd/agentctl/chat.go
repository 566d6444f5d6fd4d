package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the configured agent",
	Long: "Sends a single message when one is given as an argument, " +
		"otherwise starts an interactive session. Each session gets a " +
		"fresh id and its turns feed the agent's memory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		sessionID := uuid.NewString()

		ask := func(message string) {
			knowledge := rt.memory.KnowledgeContext(ctx, sessionID, message, 5)
			answer := rt.agent.Chat(ctx, map[string]any{
				"user_message":      message,
				"knowledge_context": knowledge,
				"session_id":        sessionID,
			})
			fmt.Println(answer)

			rt.memory.AddShortTerm(sessionID, "User: "+message, nil, rt.memory.Embed(ctx, message))
			rt.memory.AddShortTerm(sessionID, "Assistant: "+answer, nil, rt.memory.Embed(ctx, answer))
		}

		if len(args) > 0 {
			ask(strings.Join(args, " "))
		} else {
			fmt.Printf("session %s, empty line quits\n", sessionID)
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					break
				}
				ask(line)
			}
		}

		if err := rt.memory.FlushToLongTerm(ctx, sessionID); err != nil {
			log.Printf("flush session memory: %v", err)
		}
		return nil
	},
}

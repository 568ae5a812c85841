package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daedalos/daedalos/internal/models"
	"github.com/daedalos/daedalos/internal/output"
)

// NewMessagingCommands returns the MessageBus (C5) verb group: send, inbox,
// read, clear, broadcast, share, artifacts.
func NewMessagingCommands() []*cobra.Command {
	return []*cobra.Command{
		newSendCmd(),
		newInboxCmd(),
		newReadCmd(),
		newClearCmd(),
		newBroadcastCmd(),
		newShareCmd(),
		newArtifactsCmd(),
	}
}

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <to> <content>",
		Short: "Send a message to another agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kindFlag, _ := cmd.Flags().GetString("kind")
			kind := models.MessageKindUser
			if kindFlag != "" {
				kind = models.MessageKind(kindFlag)
			}

			from, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}

			id, err := e.Bus.Send(args[0], from, kind, args[1])
			if err != nil {
				return cmdErr(err)
			}
			type resp struct {
				MessageID string `json:"message_id"`
			}
			return output.PrintSuccess(resp{MessageID: id})
		},
	}
	cmd.Flags().String("kind", "", "Message kind (default: user)")
	return cmd
}

func newInboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List messages addressed to the current agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pendingOnly, _ := cmd.Flags().GetBool("pending-only")
			agent, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			msgs, err := e.Bus.Inbox(agent, pendingOnly)
			if err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(msgs)
		},
	}
	cmd.Flags().Bool("pending-only", false, "Hide messages already marked read")
	return cmd
}

func newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id-or-all>",
		Short: "Mark one or every inbox message as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Bus.MarkRead(agent, args[0]); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Marked string `json:"marked"`
			}
			return output.PrintSuccess(resp{Marked: args[0]})
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop already-read messages from the current agent's inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Bus.Clear(agent); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Cleared string `json:"cleared"`
			}
			return output.PrintSuccess(resp{Cleared: agent})
		},
	}
}

func newBroadcastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast <content>",
		Short: "Send a message to every agent except the sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Bus.Broadcast(from, args[0]); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Broadcast bool `json:"broadcast"`
			}
			return output.PrintSuccess(resp{Broadcast: true})
		},
	}
}

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share <file-path>",
		Short: "Publish a file into the shared namespace and notify recipients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			recipients, _ := cmd.Flags().GetStringSlice("recipient")

			from, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}

			artifactName, err := e.Bus.Publish(from, args[0], recipients, name)
			if err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Artifact string `json:"artifact"`
			}
			return output.PrintSuccess(resp{Artifact: artifactName})
		},
	}
	cmd.Flags().String("name", "", "Artifact name (default: a generated unique id)")
	cmd.Flags().StringSlice("recipient", nil, "Recipients to notify (default: everyone but the sender)")
	return cmd
}

func newArtifactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts [name]",
		Short: "List published artifacts, or show one by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if len(args) == 1 {
				artifact, ok := e.Bus.GetArtifact(args[0])
				if !ok {
					return cmdErr(fmt.Errorf("unknown artifact %q", args[0]))
				}
				return output.PrintSuccess(artifact)
			}
			artifacts, err := e.Bus.Artifacts()
			if err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(artifacts)
		},
	}
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitomein/loadintel/exportbridge/internal/bridge"
	"github.com/vitomein/loadintel/exportbridge/internal/infrastructure/server"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose a directory and grant access to it",
	Long: `Prompt for a directory inside the configured storage volume and
persist read/write access to it. Prints the granted tree URI.`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	c, err := openComponents(server.PromptLaunchers)
	if err != nil {
		return err
	}
	defer c.Close()

	out := newUI(cmd.ErrOrStderr())
	result := bridge.NewReplyResult()
	c.Picker.Pick(cmd.Context(), result)

	reply := <-result.Done()
	switch {
	case reply.Error != nil:
		return fmt.Errorf("%s: %s", reply.Error.Code, reply.Error.Message)
	case reply.Value == nil:
		out.Warningf("Directory pick canceled")
		return nil
	}

	out.Successf("Access granted")
	fmt.Fprintln(cmd.OutOrStdout(), reply.Value)
	return nil
}

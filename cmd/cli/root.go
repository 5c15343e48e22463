package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const secretEnv = "BACKUP_GW_SECURITY_APP_SECRET"

// NewRootCommand builds the `gateway-admin` command tree.
// NewRootCommand 构建 `gateway-admin` 命令树。
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gateway-admin",
		Short: "A CLI tool for administering the backup gateway.",
		Long: `gateway-admin is a command-line interface for performing administrative tasks
on the backup gateway, such as generating repository credentials, sealing
secrets and provisioning users.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("secret", "", "shared secret for sealing (default $"+secretEnv+")")

	rootCmd.AddCommand(
		newPassphraseCmd(),
		newKeyPairCmd(),
		newHashPasswordCmd(),
		newEncryptCmd(),
		newDecryptCmd(),
		newCreateUserCmd(),
	)
	return rootCmd
}

// Execute is the main entry point for the CLI application.
// It parses the command-line arguments and executes the appropriate command.
// If an error occurs, it prints the error and exits.
// Execute 是 CLI 应用程序的主入口点。
// 它解析命令行参数并执行相应的命令。如果发生错误，它会打印错误并退出。
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// sharedSecret returns --secret, falling back to the environment.
func sharedSecret(cmd *cobra.Command) string {
	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		secret = os.Getenv(secretEnv)
	}
	return secret
}

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/backupgw/internal/infrastructure/crypto"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/errors"
)

func newPassphraseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passphrase",
		Short: "Generate a repository passphrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			length, _ := cmd.Flags().GetInt("bytes")
			creds := crypto.NewCredentialService()
			passphrase, err := creds.GeneratePassphrase(length)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, passphrase)

			if secret := sharedSecret(cmd); secret != "" {
				sealer, err := crypto.NewSealer(creds, secret)
				if err != nil {
					return err
				}
				sealed, err := sealer.Seal(passphrase)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "encrypted: %s\n", sealed)
			}
			return nil
		},
	}
	cmd.Flags().Int("bytes", constants.DefaultPassphraseBytes, "random bytes before base64 encoding")
	return cmd
}

func newKeyPairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keypair",
		Short: "Generate an SSH key pair for a backup server",
		RunE: func(cmd *cobra.Command, args []string) error {
			comment, _ := cmd.Flags().GetString("comment")
			bits, _ := cmd.Flags().GetInt("bits")
			if strings.ContainsAny(comment, "\r\n") {
				return errors.ErrBadRequest("comment must be a single line")
			}
			kp, err := crypto.NewCredentialService(crypto.WithKeyBits(bits)).GenerateKeyPair(comment)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, kp.PrivateKey)
			fmt.Fprintln(out, kp.PublicKey)
			return nil
		},
	}
	cmd.Flags().String("comment", "", "comment appended to the public key")
	cmd.Flags().Int("bits", constants.KeyPairBits, "RSA modulus size")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin with argon2id",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := crypto.NewCredentialService().HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newEncryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [value]",
		Short: "Seal a value with the shared secret",
		Long:  "Seal a value with the shared secret. The value is read from stdin when not given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sealer, err := newSealer(cmd)
			if err != nil {
				return err
			}
			value, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}
			sealed, err := sealer.Seal(value)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sealed)
			return nil
		},
	}
}

func newDecryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt [value]",
		Short: "Open a sealed value; clear-text values are printed unchanged",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sealer, err := newSealer(cmd)
			if err != nil {
				return err
			}
			value, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}
			plain, ok := sealer.Unseal(value)
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "value is not a sealed blob, printed unchanged")
			}
			fmt.Fprintln(cmd.OutOrStdout(), plain)
			return nil
		},
	}
}

func newSealer(cmd *cobra.Command) (*crypto.Sealer, error) {
	return crypto.NewSealer(crypto.NewCredentialService(), sharedSecret(cmd))
}

func argOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return readLine(cmd.InOrStdin())
}

// readLine reads one line without its terminator.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.ErrBadRequest("no input on stdin")
	}
	return line, nil
}

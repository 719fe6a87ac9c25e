package cmd

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/Siasom1/orderly-counter/signer"
	"github.com/Siasom1/orderly-counter/wallet"
)

var errNoPassphrase = errors.New("passphrase required. Set via --passphrase or COUNTER_PASSPHRASE")

func newWalletCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage encrypted key files",
	}

	seal := &cobra.Command{
		Use:   "seal <file>",
		Short: "Encrypt the signing key into a key file",
		Long: `Encrypt --key (or PRIVATE_KEY from the environment) under the
passphrase and write it to <file>. Use the file with 'counterctl run --keyfile'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass := o.v.GetString("passphrase")
			if pass == "" {
				return errNoPassphrase
			}

			raw, _ := cmd.Flags().GetString("key")
			if raw == "" {
				raw, _ = o.loadConfig().Default().Account()
			}
			key, err := signer.ParseKey(raw)
			if err != nil {
				return err
			}

			kdf := wallet.StandardScrypt
			if light, _ := cmd.Flags().GetBool("light"); light {
				kdf = wallet.LightScrypt
			}

			kf, err := wallet.SealWithParams(key, pass, kdf)
			if err != nil {
				return err
			}
			if err := wallet.WriteFile(args[0], kf); err != nil {
				return fmt.Errorf("write key file: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", kf.Address.Hex(), args[0])
			return nil
		},
	}
	seal.Flags().String("key", "", "hex private key (default PRIVATE_KEY)")
	seal.Flags().Bool("light", false, "use light scrypt parameters")

	open := &cobra.Command{
		Use:   "open <file>",
		Short: "Decrypt a key file and print its address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kf, err := wallet.ReadFile(args[0])
			if err != nil {
				return err
			}
			key, err := wallet.Open(kf, o.v.GetString("passphrase"))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), kf.Address.Hex())
			if show, _ := cmd.Flags().GetBool("show-key"); show {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(crypto.FromECDSA(key)))
			}
			return nil
		},
	}
	open.Flags().Bool("show-key", false, "also print the decrypted private key")

	cmd.AddCommand(seal, open)
	return cmd
}

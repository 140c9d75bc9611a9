package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cgc-labs/marketd/internal/crypto"
)

var keygenName string

// keygenCmd generates an account keypair, either random or derived
// deterministically from a name.
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an account keypair",
	Long: `Generate a secp256k1 account keypair and print its address.
With --name the keypair is derived deterministically, which is useful
for standalone-mode testing where the same name must always map to the
same account.`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVar(&keygenName, "name", "", "derive the keypair from a name instead of randomness")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	var kp *crypto.KeyPair
	if keygenName != "" {
		kp = crypto.NewKeyPairFromSeed(crypto.SeedFromName(keygenName))
	} else {
		var err error
		kp, err = crypto.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("generate keypair: %w", err)
		}
	}

	fmt.Printf("address:    %s\n", kp.Address())
	fmt.Printf("public_key: %s\n", hex.EncodeToString(kp.PublicKey()))
	if keygenName != "" {
		fmt.Printf("name:       %s\n", keygenName)
	}
	return nil
}

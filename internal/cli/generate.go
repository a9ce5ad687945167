// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keypairgen.
//
// go-keypairgen is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keypairgen/pkg/adapters/logger"
	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
	"github.com/jeremyhahn/go-keypairgen/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-keypairgen/pkg/keygen"
	"github.com/jeremyhahn/go-keypairgen/pkg/keystore"
	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

// maxCount bounds --count.
const maxCount = 1000

type generateFlags struct {
	count      int
	save       bool
	jwk        bool
	passphrase string
}

func (f *generateFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.count, "count", "n", 1, "number of key pairs to generate")
	cmd.Flags().BoolVar(&f.save, "save", false, "save the key pairs to the key store instead of printing private keys")
	cmd.Flags().BoolVar(&f.jwk, "jwk", false, "print keys as JSON Web Keys (P-256, P-384 and P-521 only)")
	cmd.Flags().StringVar(&f.passphrase, "passphrase", "", "encrypt private keys with this passphrase (NIST curves only)")
}

func (a *app) newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate key pairs",
	}
	cmd.AddCommand(a.newGenerateECCommand(), a.newGenerateDHCommand())
	return cmd
}

func (a *app) newGenerateECCommand() *cobra.Command {
	var (
		gf      generateFlags
		curve   string
		keySize int
	)

	cmd := &cobra.Command{
		Use:   "ec",
		Short: "Generate elliptic curve key pairs",
		Long: `Generate elliptic curve key pairs on a named curve, or on the default
curve for a key size. Run "keypairgen curves" for the supported names.`,
		Example: `  keypairgen generate ec --curve secp384r1
  keypairgen generate ec --key-size 256 --count 3 --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var spec keygen.ParameterSpec
			if cmd.Flags().Changed("curve") {
				spec = keygen.ECParameterSpec{CurveName: curve}
			} else {
				spec = keygen.KeySizeSpec(keySize)
			}
			return a.runGenerate(types.AlgorithmEC, spec, &gf)
		},
	}

	cmd.Flags().StringVar(&curve, "curve", "", "curve name, e.g. secp256r1 or P-256")
	cmd.Flags().IntVar(&keySize, "key-size", 0, "key size in bits; selects the default curve of that size")
	cmd.MarkFlagsMutuallyExclusive("curve", "key-size")
	cmd.MarkFlagsOneRequired("curve", "key-size")
	gf.register(cmd)
	return cmd
}

func (a *app) newGenerateDHCommand() *cobra.Command {
	var (
		gf            generateFlags
		paramsFile    string
		prime         string
		base          string
		privateLength int
	)

	cmd := &cobra.Command{
		Use:   "dh",
		Short: "Generate Diffie-Hellman key pairs",
		Long: `Generate finite field Diffie-Hellman key pairs. The group must be given
explicitly, either as a PKCS#3 "DH PARAMETERS" file (PEM or DER) or as a
hexadecimal prime and a base. There is no default group.`,
		Example: `  openssl dhparam -out dh2048.pem 2048
  keypairgen generate dh --params dh2048.pem
  keypairgen generate dh --prime FFFFFFFF... --base 2 --private-length 256`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var group *dh.Group
			if paramsFile != "" {
				g, err := a.readParameters(paramsFile)
				if err != nil {
					return err
				}
				group = g
			} else {
				p, err := parseBigInt(prime, 16)
				if err != nil {
					return fmt.Errorf("invalid --prime: %w", err)
				}
				g, err := parseBigInt(base, 0)
				if err != nil {
					return fmt.Errorf("invalid --base: %w", err)
				}
				group = &dh.Group{P: p, G: g}
			}
			if cmd.Flags().Changed("private-length") {
				group.L = privateLength
			}
			return a.runGenerate(types.AlgorithmDH, keygen.DHGroupSpecFromGroup(group), &gf)
		},
	}

	cmd.Flags().StringVar(&paramsFile, "params", "", "PKCS#3 DH parameter file")
	cmd.Flags().StringVar(&prime, "prime", "", "prime modulus in hexadecimal")
	cmd.Flags().StringVar(&base, "base", "", "generator (decimal, or 0x-prefixed hexadecimal)")
	cmd.Flags().IntVar(&privateLength, "private-length", 0, "private value length in bits (0 = unspecified)")
	cmd.MarkFlagsMutuallyExclusive("params", "prime")
	cmd.MarkFlagsMutuallyExclusive("params", "base")
	cmd.MarkFlagsRequiredTogether("prime", "base")
	cmd.MarkFlagsOneRequired("params", "prime")
	gf.register(cmd)
	return cmd
}

func (a *app) readParameters(path string) (*dh.Group, error) {
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read DH parameters: %w", err)
	}
	group, err := dh.ParseParametersPEM(data)
	if err != nil {
		if der, derErr := dh.ParseParameters(data); derErr == nil {
			return der, nil
		}
		return nil, fmt.Errorf("failed to parse DH parameters %s: %w", path, err)
	}
	return group, nil
}

// parseBigInt parses an integer, ignoring whitespace and colons so that
// "openssl dhparam -text" output can be pasted.
func parseBigInt(s string, base int) (*big.Int, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, s)
	if base == 16 {
		clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	}
	if clean == "" {
		return nil, fmt.Errorf("empty value")
	}
	n, ok := new(big.Int).SetString(clean, base)
	if !ok {
		return nil, fmt.Errorf("%q is not a valid integer", s)
	}
	return n, nil
}

func (a *app) runGenerate(alg types.Algorithm, spec keygen.ParameterSpec, gf *generateFlags) error {
	if gf.count < 1 || gf.count > maxCount {
		return fmt.Errorf("--count must be between 1 and %d", maxCount)
	}

	gen, err := a.provider.New(alg.String())
	if err != nil {
		return err
	}
	if err := gen.Initialize(spec); err != nil {
		return err
	}

	var store *keystore.KeyStore
	if gf.save {
		if store, err = a.keyStore(); err != nil {
			return err
		}
	}
	var password []byte
	if gf.passphrase != "" {
		password = []byte(gf.passphrase)
	}

	keys := make([]GeneratedKey, 0, gf.count)
	for i := 0; i < gf.count; i++ {
		kp, err := gen.Generate()
		if err != nil {
			return err
		}
		k, err := a.describe(kp, store, password, gf.jwk)
		if err != nil {
			return err
		}
		keys = append(keys, k)
	}

	a.log.Info("generated key pairs",
		logger.String("algorithm", alg.String()),
		logger.Int("count", len(keys)),
		logger.Bool("saved", gf.save))
	return a.printer().PrintGeneratedKeys(keys)
}

// describe renders kp for output. Saved keys are written to the store and
// their private halves are not printed.
func (a *app) describe(kp *keygen.KeyPair, store *keystore.KeyStore, password []byte, asJWK bool) (GeneratedKey, error) {
	k := GeneratedKey{
		ID:          kp.ID.String(),
		Algorithm:   kp.Algorithm.String(),
		Parameter:   kp.Parameter(),
		KeySizeBits: kp.KeySizeBits,
	}

	pubPEM, err := kp.PublicPEM()
	if err != nil {
		return k, err
	}
	k.PublicKey = string(pubPEM)

	if store != nil {
		meta, err := store.Save(kp, password)
		if err != nil {
			return k, err
		}
		k.Saved = true
		k.Fingerprint = meta.Fingerprint
	} else {
		privPEM, err := kp.PrivatePEM(password)
		if err != nil {
			return k, err
		}
		k.PrivateKey = string(privPEM)
	}

	if asJWK {
		var key any = kp.Private
		if store != nil || len(password) > 0 {
			key = kp.Public
		}
		data, err := jwk.Marshal(key, jwk.WithKeyID(k.ID))
		if err != nil {
			return k, err
		}
		k.JWK = data
	}
	return k, nil
}

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
	"crypto"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/ecdh"
	"github.com/jeremyhahn/go-keypairgen/pkg/encoding"
	"github.com/jeremyhahn/go-keypairgen/pkg/keygen"
	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

// DerivedKey is the result of a key agreement between two saved key pairs.
type DerivedKey struct {
	KeyID     string `json:"key_id"`
	PeerID    string `json:"peer_id"`
	Algorithm string `json:"algorithm"`
	Length    int    `json:"length"`
	Key       string `json:"key"`
}

type agreeFlags struct {
	length     int
	info       string
	salt       string
	passphrase string
}

func (a *app) newKeysAgreeCommand() *cobra.Command {
	f := &agreeFlags{}
	cmd := &cobra.Command{
		Use:   "agree ID PEER_ID",
		Short: "Derive a symmetric key from a saved key pair and a peer's public key",
		Long: `Performs EC or finite field Diffie-Hellman between the private key of ID
and the public key of PEER_ID, then expands the shared secret with
HKDF-SHA256. Both key pairs must use the same curve or group.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAgree(args[0], args[1], f)
		},
	}
	cmd.Flags().IntVar(&f.length, "length", 32, "derived key length in bytes")
	cmd.Flags().StringVar(&f.info, "info", "", "HKDF info string")
	cmd.Flags().StringVar(&f.salt, "salt", "", "HKDF salt (hex)")
	cmd.Flags().StringVar(&f.passphrase, "passphrase", "", "passphrase for an encrypted private key")
	return cmd
}

func (a *app) runAgree(id, peerID string, f *agreeFlags) error {
	if f.length < 1 || f.length > 255*32 {
		return fmt.Errorf("--length must be between 1 and %d", 255*32)
	}
	var salt []byte
	if f.salt != "" {
		var err error
		if salt, err = hex.DecodeString(f.salt); err != nil {
			return fmt.Errorf("invalid --salt: %w", err)
		}
	}

	store, err := a.keyStore()
	if err != nil {
		return err
	}
	var password []byte
	if f.passphrase != "" {
		password = []byte(f.passphrase)
	}
	kp, err := store.Load(id, password)
	if err != nil {
		return err
	}
	peerPEM, err := store.PublicPEM(peerID)
	if err != nil {
		return err
	}
	peer, err := encoding.DecodePublicPEM(peerPEM)
	if err != nil {
		return err
	}

	secret, err := sharedSecret(kp, peer)
	if err != nil {
		return err
	}
	var key []byte
	if kp.Algorithm == types.AlgorithmDH {
		key, err = dh.DeriveKey(secret, salt, []byte(f.info), f.length)
	} else {
		key, err = ecdh.DeriveKey(secret, salt, []byte(f.info), f.length)
	}
	if err != nil {
		return err
	}
	a.log.Debug("derived shared key")

	return a.printer().PrintDerivedKey(DerivedKey{
		KeyID:     kp.ID.String(),
		PeerID:    peerID,
		Algorithm: kp.Algorithm.String(),
		Length:    len(key),
		Key:       hex.EncodeToString(key),
	})
}

func sharedSecret(kp *keygen.KeyPair, peer crypto.PublicKey) ([]byte, error) {
	if priv, ok := kp.ECPrivateKey(); ok {
		pub, ok := peer.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("peer key is not an EC public key")
		}
		return ecdh.DeriveSharedSecret(priv, pub)
	}
	if priv, ok := kp.DHPrivateKey(); ok {
		pub, ok := peer.(*dh.PublicKey)
		if !ok {
			return nil, fmt.Errorf("peer key is not a DH public key")
		}
		return dh.ComputeSharedSecret(priv, pub)
	}
	return nil, fmt.Errorf("unsupported key type %T", kp.Private)
}

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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jeremyhahn/go-keypairgen/pkg/capability"
	"github.com/jeremyhahn/go-keypairgen/pkg/keystore"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(strings.ToLower(format)),
		writer: writer,
	}
}

// GeneratedKey is one generated key pair as shown to the user.
type GeneratedKey struct {
	ID          string          `json:"id"`
	Algorithm   string          `json:"algorithm"`
	Parameter   string          `json:"parameter"`
	KeySizeBits int             `json:"key_size_bits"`
	PublicKey   string          `json:"public_key"`
	PrivateKey  string          `json:"private_key,omitempty"`
	JWK         json.RawMessage `json:"jwk,omitempty"`
	Saved       bool            `json:"saved"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

// PrintCurves prints the capability registry
func (p *Printer) PrintCurves(curves []capability.CurveDescriptor, keySizes []int, features capability.Features) error {
	switch p.format {
	case OutputFormatJSON:
		list := make([]map[string]interface{}, len(curves))
		for i, c := range curves {
			list[i] = map[string]interface{}{
				"name":          c.Name,
				"key_size_bits": c.KeySizeBits,
			}
		}
		return p.printJSON(map[string]interface{}{
			"curves":    list,
			"key_sizes": keySizes,
			"features": map[string]bool{
				"ec": features.EC,
				"dh": features.DH,
			},
		})
	case OutputFormatText:
		if len(curves) == 0 {
			fmt.Fprintln(p.writer, "No curves enabled")
		} else {
			fmt.Fprintf(p.writer, "%-20s %s\n", "CURVE", "BITS")
			fmt.Fprintln(p.writer, strings.Repeat("-", 26))
			for _, c := range curves {
				fmt.Fprintf(p.writer, "%-20s %d\n", c.Name, c.KeySizeBits)
			}
		}
		sizes := make([]string, len(keySizes))
		for i, s := range keySizes {
			sizes[i] = fmt.Sprint(s)
		}
		fmt.Fprintf(p.writer, "\nKey sizes: %s\n", strings.Join(sizes, ", "))
		fmt.Fprintf(p.writer, "EC: %t\nDH: %t\n", features.EC, features.DH)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintGeneratedKeys prints freshly generated key pairs
func (p *Printer) PrintGeneratedKeys(keys []GeneratedKey) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"keys": keys,
		})
	case OutputFormatText:
		for i, k := range keys {
			if i > 0 {
				fmt.Fprintln(p.writer)
			}
			fmt.Fprintf(p.writer, "# id: %s\n", k.ID)
			fmt.Fprintf(p.writer, "# algorithm: %s (%s, %d bits)\n", k.Algorithm, k.Parameter, k.KeySizeBits)
			if k.Saved {
				fmt.Fprintf(p.writer, "# saved: yes (fingerprint %s)\n", k.Fingerprint)
			}
			if len(k.JWK) > 0 {
				fmt.Fprintln(p.writer, string(k.JWK))
				continue
			}
			fmt.Fprint(p.writer, k.PublicKey)
			fmt.Fprint(p.writer, k.PrivateKey)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintKeyList prints stored key metadata
func (p *Printer) PrintKeyList(keys []*keystore.Metadata) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"keys": keys,
		})
	case OutputFormatText:
		if len(keys) == 0 {
			fmt.Fprintln(p.writer, "No keys found")
			return nil
		}
		fmt.Fprintf(p.writer, "%-36s %-5s %-12s %-9s %s\n", "ID", "ALG", "PARAMETER", "ENCRYPTED", "CREATED")
		fmt.Fprintln(p.writer, strings.Repeat("-", 90))
		for _, k := range keys {
			fmt.Fprintf(p.writer, "%-36s %-5s %-12s %-9t %s\n",
				k.ID, k.Algorithm, k.Parameter, k.Encrypted, k.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintKeyInfo prints the metadata and public key of one stored key pair
func (p *Printer) PrintKeyInfo(meta *keystore.Metadata, publicPEM []byte) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"metadata":   meta,
			"public_key": string(publicPEM),
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Key Information:\n")
		fmt.Fprintf(p.writer, "  ID:          %s\n", meta.ID)
		fmt.Fprintf(p.writer, "  Algorithm:   %s\n", meta.Algorithm)
		fmt.Fprintf(p.writer, "  Parameter:   %s\n", meta.Parameter)
		fmt.Fprintf(p.writer, "  Key Size:    %d bits\n", meta.KeySizeBits)
		if meta.PrivateValueLength > 0 {
			fmt.Fprintf(p.writer, "  Private Len: %d bits\n", meta.PrivateValueLength)
		}
		fmt.Fprintf(p.writer, "  Encrypted:   %t\n", meta.Encrypted)
		fmt.Fprintf(p.writer, "  Fingerprint: %s\n", meta.Fingerprint)
		fmt.Fprintf(p.writer, "  Created:     %s\n", meta.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Fprint(p.writer, string(publicPEM))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintDerivedKey prints a key agreement result
func (p *Printer) PrintDerivedKey(k DerivedKey) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(k)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Key:       %s\n", k.KeyID)
		fmt.Fprintf(p.writer, "Peer:      %s\n", k.PeerID)
		fmt.Fprintf(p.writer, "Algorithm: %s\n", k.Algorithm)
		fmt.Fprintf(p.writer, "Derived:   %s\n", k.Key)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

func (p *Printer) printJSON(v interface{}) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

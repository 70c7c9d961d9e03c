package utils

import (
	"os"
	"strings"

	"github.com/Luismorlan/utxo_ledger/model"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// ParseKeyFile loads the signing key stored at fPath, or generates and saves a new one
// when createNewKey is set.
func ParseKeyFile(fPath string, scheme string, createNewKey bool) (Signer, error) {
	if fPath == "" {
		return nil, errors.New("file path is missing")
	}
	// Generate new key and save to given path
	if createNewKey {
		log.Info().Str("scheme", scheme).Msg("generating a new key")
		signer, err := NewSigner(scheme)
		if err != nil {
			return nil, err
		}
		if err := SaveSignerToFile(signer, fPath); err != nil {
			return nil, err
		}
		return signer, nil
	}
	// Read key from existing file
	signer, err := ReadKeyFromFPath(fPath, scheme)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read key from %s", fPath)
	}
	return signer, nil
}

// SaveSignerToFile writes the private key of signer: PEM for rsa, hex for secp256k1.
func SaveSignerToFile(signer Signer, fpath string) error {
	var data []byte
	switch s := signer.(type) {
	case *RSASigner:
		data = PrivateKeyToBytes(s.Key)
	case *Secp256k1Signer:
		data = []byte(BytesToHex(s.Key.Serialize()) + "\n")
	default:
		return errors.Errorf("cannot save signer of type %T", signer)
	}
	if err := os.WriteFile(fpath, data, 0600); err != nil {
		return errors.Wrapf(err, "failed to save key in %s", fpath)
	}
	log.Info().Str("path", fpath).Msg("saved private key")
	return nil
}

func ReadKeyFromFPath(fPath string, scheme string) (Signer, error) {
	fileContent, err := os.ReadFile(fPath)
	if err != nil {
		return nil, err
	}
	if len(fileContent) == 0 {
		return nil, errors.New("key file is empty")
	}
	switch scheme {
	case SchemeRSA:
		key := BytesToPrivateKey(fileContent)
		if key == nil {
			return nil, errors.New("no rsa private key found")
		}
		return &RSASigner{Key: key}, nil
	case SchemeSecp256k1:
		raw, err := HexToBytes(strings.TrimSpace(string(fileContent)))
		if err != nil {
			return nil, errors.Wrap(err, "malformed secp256k1 key")
		}
		key, _ := btcec.PrivKeyFromBytes(raw)
		return &Secp256k1Signer{Key: key}, nil
	default:
		return nil, errors.Errorf("unknown signature scheme %q", scheme)
	}
}

// GenesisFile is the YAML layout of the initial ledger snapshot.
type GenesisFile struct {
	Outputs []GenesisOutput `yaml:"outputs"`
}

type GenesisOutput struct {
	Value int64 `yaml:"value"`
	// Hex encoded owner key.
	PublicKey string `yaml:"public_key"`
}

// ReadGenesisFile parses a genesis file and returns the genesis transaction minting its
// outputs. Every output becomes spendable as (genesis hash, position).
func ReadGenesisFile(fPath string) (*model.Transaction, error) {
	fileContent, err := os.ReadFile(fPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read genesis file %s", fPath)
	}
	var g GenesisFile
	if err := yaml.Unmarshal(fileContent, &g); err != nil {
		return nil, errors.Wrapf(err, "failed to parse genesis file %s", fPath)
	}

	outputs := make([]model.Output, 0, len(g.Outputs))
	for i, o := range g.Outputs {
		if o.Value < 0 {
			return nil, errors.Errorf("genesis output %d has negative value %d", i, o.Value)
		}
		pk, err := HexToBytes(o.PublicKey)
		if err != nil {
			return nil, errors.Wrapf(err, "genesis output %d has malformed public key", i)
		}
		outputs = append(outputs, model.Output{Value: o.Value, PublicKey: pk})
	}
	return CreateGenesisTx(outputs)
}
